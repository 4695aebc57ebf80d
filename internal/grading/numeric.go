package grading

import (
	"math"
	"strconv"
)

// Round2 四舍五入保留两位小数
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Clamp 将分数限制在 [0, max]，NaN 与无穷大先按 0 处理
func Clamp(marks, max float64) float64 {
	if math.IsNaN(marks) || math.IsInf(marks, 0) {
		marks = 0
	}
	if max < 0 {
		max = 0
	}
	if marks < 0 {
		return 0
	}
	if marks > max {
		return max
	}
	return marks
}

// Percentage 计算得分百分比（两位小数），满分为 0 时返回 0
func Percentage(score, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return Round2(score / possible * 100)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
