package httpapi

// Result 统一响应结构（code 2000 成功，-1 失败）
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

// Page is the list payload: {items, total}.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// OkList wraps items as a Page; nil becomes an empty list.
func OkList[T any](items []T) Result[Page[T]] {
	if items == nil {
		items = []T{}
	}
	return Ok(Page[T]{Items: items, Total: len(items)})
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message}
}
