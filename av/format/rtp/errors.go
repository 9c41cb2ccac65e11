// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"errors"
	"fmt"
)

// ErrFormatViolation 报文违反协议约束，所有 *FormatError 都可用 errors.Is 匹配
var ErrFormatViolation = errors.New("rtp: format violation")

// FormatError 描述违反协议约束的字段
type FormatError struct {
	Field string // 出错的字段
	Msg   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("rtp: %s: %s", e.Field, e.Msg)
}

// Unwrap .
func (e *FormatError) Unwrap() error { return ErrFormatViolation }

func formatErrorf(field, format string, a ...interface{}) error {
	return &FormatError{Field: field, Msg: fmt.Sprintf(format, a...)}
}
