package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/pkg/humansize"
)

// Notifier announces catalog changes to collaborating systems. Failures are
// the notifier's problem, not the caller's.
type Notifier interface {
	CategoryDeleted(ctx context.Context, title string)
}

// Service keeps the catalog and the media directory in agreement. All
// filesystem-mutating operations are serialized on one mutex so a sync pass
// never races a rename or delete.
type Service struct {
	repo          Repository
	logger        zerolog.Logger
	mediaRoot     string
	thumbsRoot    string
	publicBaseURL string
	notifier      Notifier

	fsMu sync.Mutex
}

// ServiceConfig holds the service dependencies.
type ServiceConfig struct {
	Repository     Repository
	Logger         zerolog.Logger
	MediaRoot      string
	ThumbnailsRoot string
	PublicBaseURL  string
	Notifier       Notifier
}

// NewService creates a catalog service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:          cfg.Repository,
		logger:        cfg.Logger.With().Str("component", "catalog").Logger(),
		mediaRoot:     cfg.MediaRoot,
		thumbsRoot:    cfg.ThumbnailsRoot,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		notifier:      cfg.Notifier,
	}
}

// Sync reconciles the catalog with the media directory. Directories become
// categories, files become videos keyed by their public URL, and directories
// are created for categories that only exist in the database. The pass is
// idempotent; entries that cannot be processed are logged and skipped.
func (s *Service) Sync(ctx context.Context) (*models.SyncReport, error) {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	if err := os.MkdirAll(s.mediaRoot, 0o755); err != nil {
		return nil, fmt.Errorf("ensuring media root: %w", err)
	}
	if err := os.MkdirAll(s.thumbsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("ensuring thumbnails root: %w", err)
	}

	entries, err := os.ReadDir(s.mediaRoot)
	if err != nil {
		return nil, fmt.Errorf("reading media root: %w", err)
	}

	var report models.SyncReport
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := s.syncCategoryDir(ctx, entry.Name(), &report); err != nil {
			s.logger.Warn().Err(err).Str("category", entry.Name()).Msg("skipping category directory")
			report.EntriesSkipped++
		}
	}

	// Categories created through the API may not have a directory yet.
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	for _, c := range categories {
		if err := s.ensureCategoryDirs(c.Title); err != nil {
			s.logger.Warn().Err(err).Str("category", c.Title).Msg("creating category directories")
		}
	}

	s.logger.Info().
		Int64("categories_created", report.CategoriesCreated).
		Int64("videos_created", report.VideosCreated).
		Int64("entries_skipped", report.EntriesSkipped).
		Msg("catalog sync complete")

	return &report, nil
}

func (s *Service) syncCategoryDir(ctx context.Context, title string, report *models.SyncReport) error {
	cat, err := s.repo.GetCategoryByTitle(ctx, title)
	if errors.Is(err, ErrCategoryNotFound) {
		cat = &Category{Title: title, Icon: DefaultIcon}
		if err := s.repo.CreateCategory(ctx, cat); err != nil {
			return fmt.Errorf("creating category: %w", err)
		}
		report.CategoriesCreated++
	} else if err != nil {
		return fmt.Errorf("looking up category: %w", err)
	}

	files, err := os.ReadDir(s.categoryDir(title))
	if err != nil {
		return fmt.Errorf("reading category directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		if err := s.syncVideoFile(ctx, cat, f, report); err != nil {
			s.logger.Warn().Err(err).
				Str("category", title).
				Str("file", f.Name()).
				Msg("skipping media file")
			report.EntriesSkipped++
		}
	}
	return nil
}

func (s *Service) syncVideoFile(ctx context.Context, cat *Category, f os.DirEntry, report *models.SyncReport) error {
	src := s.srcURL(cat.Title, f.Name())
	if _, err := s.repo.GetVideoBySrc(ctx, src); err == nil {
		return nil
	} else if !errors.Is(err, ErrVideoNotFound) {
		return fmt.Errorf("looking up video: %w", err)
	}

	info, err := f.Info()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	thumb := s.thumbURL(cat.Title, f.Name())
	video := &Video{
		CategoryID: cat.ID,
		Title:      strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())),
		Src:        src,
		Thumbnail:  &thumb,
		Size:       info.Size(),
	}
	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return fmt.Errorf("creating video: %w", err)
	}
	report.VideosCreated++
	return nil
}

// CreateCategory adds a category and its backing directory.
func (s *Service) CreateCategory(ctx context.Context, req models.CategoryCreateRequest) (*models.Category, error) {
	title, err := sanitizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	icon := req.Icon
	if icon == "" {
		icon = DefaultIcon
	}

	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	cat := &Category{Title: title, Icon: icon}
	if err := s.repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	if err := s.ensureCategoryDirs(title); err != nil {
		return nil, err
	}

	out := toAPICategory(cat, nil)
	return &out, nil
}

// RenameCategory renames the category, moves its directory and rewrites the
// source URLs of every video in it.
func (s *Service) RenameCategory(ctx context.Context, id int64, req models.CategoryRenameRequest) (*models.Category, error) {
	title, err := sanitizeTitle(req.Title)
	if err != nil {
		return nil, err
	}

	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	cat, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat.Title == title {
		out := toAPICategory(cat, nil)
		return &out, nil
	}
	if _, err := s.repo.GetCategoryByTitle(ctx, title); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}

	if err := moveDir(s.categoryDir(cat.Title), s.categoryDir(title)); err != nil {
		return nil, fmt.Errorf("moving category directory: %w", err)
	}
	if err := moveDir(s.thumbDir(cat.Title), s.thumbDir(title)); err != nil {
		return nil, fmt.Errorf("moving thumbnail directory: %w", err)
	}

	oldTitle := cat.Title
	cat.Title = title
	if err := s.repo.UpdateCategory(ctx, cat); err != nil {
		return nil, err
	}

	videos, err := s.repo.ListVideos(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	oldSrc, newSrc := s.srcPrefix(oldTitle), s.srcPrefix(title)
	oldThumb, newThumb := s.thumbPrefix(oldTitle), s.thumbPrefix(title)
	for i := range videos {
		v := &videos[i]
		v.Src = strings.Replace(v.Src, oldSrc, newSrc, 1)
		if v.Thumbnail != nil {
			t := strings.Replace(*v.Thumbnail, oldThumb, newThumb, 1)
			v.Thumbnail = &t
		}
		if err := s.repo.UpdateVideo(ctx, v); err != nil {
			return nil, fmt.Errorf("rewriting video source: %w", err)
		}
	}

	s.logger.Info().Str("from", oldTitle).Str("to", title).Msg("category renamed")

	out := toAPICategory(cat, nil)
	return &out, nil
}

// DeleteCategory removes the category, its videos and its directory tree,
// then announces the deletion.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	cat, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	if err := os.RemoveAll(s.categoryDir(cat.Title)); err != nil {
		s.logger.Warn().Err(err).Str("category", cat.Title).Msg("removing category directory")
	}
	if err := os.RemoveAll(s.thumbDir(cat.Title)); err != nil {
		s.logger.Warn().Err(err).Str("category", cat.Title).Msg("removing thumbnail directory")
	}

	s.logger.Warn().Str("category", cat.Title).Msg("category deleted")
	if s.notifier != nil {
		s.notifier.CategoryDeleted(ctx, cat.Title)
	}
	return nil
}

// UploadVideo stores the uploaded file under the category's directory and
// registers it in the catalog.
func (s *Service) UploadVideo(ctx context.Context, categoryID int64, filename string, r io.Reader) (*models.Video, error) {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "filename", Message: "required", Code: "REQUIRED"},
		}}
	}

	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	cat, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	src := s.srcURL(cat.Title, filename)
	if _, err := s.repo.GetVideoBySrc(ctx, src); err == nil {
		return nil, ErrVideoExists
	} else if !errors.Is(err, ErrVideoNotFound) {
		return nil, err
	}

	dst := filepath.Join(s.categoryDir(cat.Title), filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("creating category directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("creating media file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("writing media file: %w", err)
	}

	thumb := s.thumbURL(cat.Title, filename)
	video := &Video{
		CategoryID: categoryID,
		Title:      strings.TrimSuffix(filename, filepath.Ext(filename)),
		Src:        src,
		Thumbnail:  &thumb,
		Size:       size,
	}
	if err := s.repo.CreateVideo(ctx, video); err != nil {
		os.Remove(dst)
		return nil, err
	}

	out := toAPIVideo(video)
	return &out, nil
}

// UpdateVideo edits a video's metadata. A category change moves the media
// file and rewrites the source URL; a title change is display-only.
func (s *Service) UpdateVideo(ctx context.Context, id int64, req models.VideoUpdateRequest) (*models.Video, error) {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	v, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != v.CategoryID {
		oldCat, err := s.repo.GetCategory(ctx, v.CategoryID)
		if err != nil {
			return nil, err
		}
		newCat, err := s.repo.GetCategory(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		filename, err := fileNameFromSrc(v.Src)
		if err != nil {
			return nil, err
		}

		if err := s.ensureCategoryDirs(newCat.Title); err != nil {
			return nil, err
		}
		oldPath := filepath.Join(s.categoryDir(oldCat.Title), filename)
		newPath := filepath.Join(s.categoryDir(newCat.Title), filename)
		if err := os.Rename(oldPath, newPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("moving media file: %w", err)
		}
		oldThumb := filepath.Join(s.thumbDir(oldCat.Title), thumbName(filename))
		newThumb := filepath.Join(s.thumbDir(newCat.Title), thumbName(filename))
		if err := os.Rename(oldThumb, newThumb); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("moving thumbnail file: %w", err)
		}

		v.CategoryID = newCat.ID
		v.Src = s.srcURL(newCat.Title, filename)
		t := s.thumbURL(newCat.Title, filename)
		v.Thumbnail = &t
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{Errors: []models.FieldError{
				{Field: "title", Message: "must not be empty", Code: "REQUIRED"},
			}}
		}
		v.Title = title
	}
	if req.Description != nil {
		v.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.repo.UpdateVideo(ctx, v); err != nil {
		return nil, err
	}

	out := toAPIVideo(v)
	return &out, nil
}

// UploadThumbnail stores a poster image for the video and points its
// thumbnail URL at it, replacing any existing poster file.
func (s *Service) UploadThumbnail(ctx context.Context, id int64, r io.Reader) (*models.Video, error) {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	v, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	cat, err := s.repo.GetCategory(ctx, v.CategoryID)
	if err != nil {
		return nil, err
	}
	filename, err := fileNameFromSrc(v.Src)
	if err != nil {
		return nil, err
	}

	dst := filepath.Join(s.thumbDir(cat.Title), thumbName(filename))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("creating thumbnail directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("creating thumbnail file: %w", err)
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("writing thumbnail file: %w", err)
	}

	thumb := s.thumbURL(cat.Title, filename)
	v.Thumbnail = &thumb
	if err := s.repo.UpdateVideo(ctx, v); err != nil {
		return nil, err
	}

	out := toAPIVideo(v)
	return &out, nil
}

// DeleteVideo removes the video and its media file.
func (s *Service) DeleteVideo(ctx context.Context, id int64) error {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()

	v, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	cat, err := s.repo.GetCategory(ctx, v.CategoryID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteVideo(ctx, id); err != nil {
		return err
	}

	filename, err := fileNameFromSrc(v.Src)
	if err == nil {
		if err := os.Remove(filepath.Join(s.categoryDir(cat.Title), filename)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("src", v.Src).Msg("removing media file")
		}
		if err := os.Remove(filepath.Join(s.thumbDir(cat.Title), thumbName(filename))); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("src", v.Src).Msg("removing thumbnail file")
		}
	}
	return nil
}

// List returns the whole catalog, categories with their videos.
func (s *Service) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	out := make([]models.Category, 0, len(categories))
	for i := range categories {
		videos, err := s.repo.ListVideos(ctx, categories[i].ID)
		if err != nil {
			return nil, fmt.Errorf("listing videos: %w", err)
		}
		out = append(out, toAPICategory(&categories[i], videos))
	}
	return out, nil
}

// GetCategory returns one category with its videos.
func (s *Service) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	cat, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	videos, err := s.repo.ListVideos(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	out := toAPICategory(cat, videos)
	return &out, nil
}

// MediaPath resolves a category/file name pair to its on-disk media path.
// Both names are validated against path traversal before joining.
func (s *Service) MediaPath(categoryTitle, filename string) (string, error) {
	if err := validatePathParts(categoryTitle, filename); err != nil {
		return "", err
	}
	return filepath.Join(s.categoryDir(categoryTitle), filename), nil
}

// ThumbnailPath resolves a category/file name pair to its on-disk thumbnail
// path.
func (s *Service) ThumbnailPath(categoryTitle, filename string) (string, error) {
	if err := validatePathParts(categoryTitle, filename); err != nil {
		return "", err
	}
	return filepath.Join(s.thumbDir(categoryTitle), filename), nil
}

func validatePathParts(parts ...string) error {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) || strings.HasPrefix(p, ".") {
			return ErrVideoNotFound
		}
	}
	return nil
}

// ensureCategoryDirs creates the media and thumbnail directories for a
// category.
func (s *Service) ensureCategoryDirs(title string) error {
	if err := os.MkdirAll(s.categoryDir(title), 0o755); err != nil {
		return fmt.Errorf("creating category directory: %w", err)
	}
	if err := os.MkdirAll(s.thumbDir(title), 0o755); err != nil {
		return fmt.Errorf("creating thumbnail directory: %w", err)
	}
	return nil
}

// moveDir renames a directory, creating the destination when the source
// never existed.
func moveDir(from, to string) error {
	if err := os.Rename(from, to); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		return os.MkdirAll(to, 0o755)
	}
	return nil
}

func (s *Service) categoryDir(title string) string {
	return filepath.Join(s.mediaRoot, title)
}

func (s *Service) thumbDir(title string) string {
	return filepath.Join(s.thumbsRoot, title)
}

func (s *Service) srcPrefix(categoryTitle string) string {
	return s.publicBaseURL + "/media/" + url.PathEscape(categoryTitle) + "/"
}

func (s *Service) srcURL(categoryTitle, filename string) string {
	return s.srcPrefix(categoryTitle) + url.PathEscape(filename)
}

func (s *Service) thumbPrefix(categoryTitle string) string {
	return s.publicBaseURL + "/thumbnails/" + url.PathEscape(categoryTitle) + "/"
}

func (s *Service) thumbURL(categoryTitle, filename string) string {
	return s.thumbPrefix(categoryTitle) + url.PathEscape(thumbName(filename))
}

// thumbName is the thumbnail file name for a media file name.
func thumbName(filename string) string {
	return filename + ".jpg"
}

func fileNameFromSrc(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing source url: %w", err)
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil {
		return "", fmt.Errorf("unescaping source url: %w", err)
	}
	return name, nil
}

func sanitizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	var errs []models.FieldError
	switch {
	case title == "":
		errs = append(errs, models.FieldError{Field: "title", Message: "required", Code: "REQUIRED"})
	case strings.ContainsAny(title, `/\`) || title == "." || title == ".." || strings.HasPrefix(title, "."):
		errs = append(errs, models.FieldError{Field: "title", Message: "must not contain path separators or leading dots", Code: "INVALID"})
	}
	if len(errs) > 0 {
		return "", &ValidationError{Errors: errs}
	}
	return title, nil
}

func toAPICategory(c *Category, videos []Video) models.Category {
	out := models.Category{
		ID:        c.ID,
		Title:     c.Title,
		Icon:      c.Icon,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for i := range videos {
		out.Videos = append(out.Videos, toAPIVideo(&videos[i]))
	}
	return out
}

func toAPIVideo(v *Video) models.Video {
	return models.Video{
		ID:          v.ID,
		CategoryID:  v.CategoryID,
		Title:       v.Title,
		Description: v.Description,
		Src:         v.Src,
		Thumbnail:   v.Thumbnail,
		Size:        v.Size,
		HumanSize:   humansize.Bytes(v.Size),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", e.Errors[0].Field, e.Errors[0].Message)
}
