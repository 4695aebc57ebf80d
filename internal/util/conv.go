package util

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LenientFloat 接受 JSON 数字或数字字符串，其他输入解析为 NaN，由调用方处理
type LenientFloat float64

func (f *LenientFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = LenientFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
			*f = LenientFloat(v)
			return nil
		}
	}
	*f = LenientFloat(math.NaN())
	return nil
}
