package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workload-dashboard/internal/dateutil"
)

// GetLimitParam reads a positive integer query parameter. Missing or
// invalid values fall back to def; values above max are clamped.
func GetLimitParam(c *gin.Context, key string, def, max int) int {
	limit, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || limit < 1 {
		return def
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// GetCapacityParam reads a positive, finite hours value. Missing, invalid,
// non-positive or non-finite values fall back to def.
func GetCapacityParam(c *gin.Context, key string, def float64) float64 {
	capacity, err := strconv.ParseFloat(strings.TrimSpace(c.Query(key)), 64)
	if err != nil || capacity <= 0 || math.IsNaN(capacity) || math.IsInf(capacity, 0) {
		return def
	}
	return capacity
}

// GetDateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func GetDateParam(c *gin.Context, key string, today dateutil.Date) (dateutil.Date, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return today, nil
	}
	return dateutil.Parse(raw)
}

// SplitIDs splits a comma-separated id list, dropping blanks.
func SplitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
