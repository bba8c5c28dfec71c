package registry

import "strings"

// Resource 是可以登记到注册表中的记录。Clone 必须返回不与原记录共享可变状态的副本。
type Resource[T any] interface {
	ResourceID() string
	ResourceName() string
	Clone() T
}

// Kind 描述一种资源：显示名称、存储键以及创建、合并更新所需的钩子。
//
// C 是创建请求，U 是所有字段均可选的更新请求。
type Kind[T Resource[T], C any, U any] struct {
	// Name 用于错误信息，例如 "Agent"、"MAS instance"。
	Name string
	// Key 用于存储与事件，例如 "agents"。
	Key string
	// NameOf 返回创建请求中的唯一名称。
	NameOf func(in C) string
	// Validate 校验必填字段与枚举字段，可为空。
	Validate func(in C) error
	// Build 把创建请求与生成的 ID、默认状态合并成记录。
	Build func(id string, in C) T
	// Patch 只把更新请求中非空的字段写入记录。
	Patch func(rec *T, in U)
}

// Enum 是一个有序的枚举集合，用于校验判别字段。
type Enum []string

// Contains 判断 value 是否在集合内，忽略大小写。
func (e Enum) Contains(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range e {
		if candidate == value {
			return true
		}
	}
	return false
}

// String 以逗号分隔的形式列出所有枚举值。
func (e Enum) String() string {
	return strings.Join(e, ", ")
}

// CloneMap 复制一层 map，避免调用方修改存储中的数据。
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CloneMaps 复制 map 列表。
func CloneMaps(in []map[string]any) []map[string]any {
	if in == nil {
		return nil
	}
	out := make([]map[string]any, len(in))
	for i, m := range in {
		out[i] = CloneMap(m)
	}
	return out
}

// CloneStrings 复制字符串切片。
func CloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
