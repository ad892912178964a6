package model

import "errors"

// ErrInvalidInput はリクエストの入力エラー。fmt.Errorf("%w: ...") で詳細を付けて返す。
var ErrInvalidInput = errors.New("invalid input")
