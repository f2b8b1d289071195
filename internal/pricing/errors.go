package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError 输入表缺少必需列
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s缺少必要列: %s", e.Table, strings.Join(e.Missing, ", "))
}

// ErrTableMissing 某张输入表未提供
var ErrTableMissing = errors.New("table not provided")

// SchemaErrors 从（可能由 errors.Join 合并的）错误中取出全部 SchemaError
func SchemaErrors(err error) []*SchemaError {
	if err == nil {
		return nil
	}
	var out []*SchemaError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, SchemaErrors(e)...)
		}
		return out
	}
	var se *SchemaError
	if errors.As(err, &se) {
		out = append(out, se)
	}
	return out
}
