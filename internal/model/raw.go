package model

// RawRecord 外部数据源返回的原始行（字段名与类型均不保证：
// 数值字段可能以字符串出现，也可能整列缺失）
type RawRecord map[string]string

// Get 读取字段值，字段缺失时返回空字符串
func (r RawRecord) Get(key string) string {
	if r == nil {
		return ""
	}
	return r[key]
}
