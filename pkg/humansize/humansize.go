// Package humansize formats byte counts as human-readable strings.
package humansize

import (
	"fmt"
	"math"
	"strconv"
)

// base is the scaling factor between units.
const base = 1024

var units = []string{"KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// Bytes formats n as a human-readable size using base-1024 units with one
// decimal place, picking the largest unit where the scaled value stays below
// 1024. Values under 1024 are reported in whole bytes:
//
//	Bytes(900)       == "900 B"
//	Bytes(2048)      == "2.0 KB"
//	Bytes(1536*1024) == "1.5 MB"
func Bytes(n int64) string {
	if math.Abs(float64(n)) < base {
		return strconv.FormatInt(n, 10) + " B"
	}

	v := float64(n)
	u := -1
	for {
		v /= base
		u++
		if math.Abs(v) < base || u == len(units)-1 {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", v, units[u])
}
