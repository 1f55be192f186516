package recipe

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursPattern   = regexp.MustCompile(`(?i)(\d+)\s*h`)
	minutesPattern = regexp.MustCompile(`(?i)(\d+)\s*m`)
	firstIntRe     = regexp.MustCompile(`\d+`)
)

type secondser interface {
	Seconds() float64
}

// ParseDuration 將 time.Duration 或時間文字轉為分鐘，零或無法解析時回傳 nil
func ParseDuration(v any) *int {
	switch d := v.(type) {
	case nil:
		return nil
	case secondser:
		minutes := int(d.Seconds() / 60)
		if minutes <= 0 {
			return nil
		}
		return &minutes
	case string:
		return ParseTimeString(d)
	case int:
		return positive(d)
	case float64:
		return positive(int(d))
	default:
		return ParseTimeString(fmt.Sprint(v))
	}
}

// ParseTimeString 解析 "1 hour 30 mins"、"PT1H30M"、"45" 之類的時間文字
func ParseTimeString(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	total := 0
	matched := false
	for _, m := range hoursPattern.FindAllStringSubmatch(s, -1) {
		if h, err := strconv.Atoi(m[1]); err == nil {
			total += h * 60
			matched = true
		}
	}
	for _, m := range minutesPattern.FindAllStringSubmatch(s, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			total += n
			matched = true
		}
	}

	if !matched {
		first := firstIntRe.FindString(s)
		if first == "" {
			return nil
		}
		n, err := strconv.Atoi(first)
		if err != nil {
			return nil
		}
		total = n
	}
	return positive(total)
}

// ParseServings 取出份量文字中的第一個整數，例如 "4 servings"
func ParseServings(yields string) *int {
	first := firstIntRe.FindString(yields)
	if first == "" {
		return nil
	}
	n, err := strconv.Atoi(first)
	if err != nil {
		return nil
	}
	return positive(n)
}

// ParseRating 過濾無效評分
func ParseRating(v float64) *float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
