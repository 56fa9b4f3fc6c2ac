package enum

// UnrepresentableValueError 窄化转换失败：兜底枚举项无法表示为更小的目标值域
// 不携带任何数据，调用方只需按类型区分
type UnrepresentableValueError struct{}

func (UnrepresentableValueError) Error() string {
	return "openenum: 值无法表示为目标值域"
}

// ErrUnrepresentable 可用于 errors.Is 判断
var ErrUnrepresentable error = UnrepresentableValueError{}

// Narrow 将开放枚举窄化到更小的值域
// targets 以枚举项名称为键；兜底枚举项或不在 targets 中的枚举项返回 UnrepresentableValueError
func Narrow[T any, D Definition[R], R Repr](e Enum[D, R], targets map[string]T) (T, error) {
	if !e.IsUnknown() {
		if v, ok := targets[e.Name()]; ok {
			return v, nil
		}
	}
	var zero T
	return zero, UnrepresentableValueError{}
}
