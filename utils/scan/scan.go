// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scan 提供分隔符列表和 K=V 参数的简单扫描
package scan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 预定义扫描器
var (
	Comma     = NewScanner(',', unicode.IsSpace)
	Semicolon = NewScanner(';', unicode.IsSpace)

	// EqualPair 扫描 K=V 形式的参数，值两侧的引号被去除
	EqualPair = NewPair('=', func(r rune) bool {
		return unicode.IsSpace(r) || r == '"'
	})
)

// Scanner 按分隔符逐个提取 token
type Scanner struct {
	delim    rune
	delimLen int
	trimFunc func(r rune) bool
}

// NewScanner 创建扫描器，trimFunc 为 nil 时不修剪 token
func NewScanner(delim rune, trimFunc func(r rune) bool) Scanner {
	if trimFunc == nil {
		trimFunc = func(r rune) bool { return false }
	}
	return Scanner{
		delim:    delim,
		delimLen: utf8.RuneLen(delim),
		trimFunc: trimFunc,
	}
}

// Scan 返回第一个 token 和剩余字串；没有分隔符时 continueScan 为 false
func (s Scanner) Scan(str string) (advance, token string, continueScan bool) {
	i := strings.IndexRune(str, s.delim)
	if i < 0 {
		return "", strings.TrimFunc(str, s.trimFunc), false
	}
	return strings.TrimFunc(str[i+s.delimLen:], s.trimFunc), strings.TrimFunc(str[:i], s.trimFunc), true
}

// Split 提取全部非空 token
func (s Scanner) Split(str string) []string {
	var tokens []string
	for ok := true; ok; {
		var token string
		str, token, ok = s.Scan(str)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Pairs 将 "k1=v1;k2=v2" 形式的字串扫描为字典，key 转为小写
func (s Scanner) Pairs(str string, pair Pair) map[string]string {
	params := make(map[string]string)
	for _, token := range s.Split(str) {
		if k, v, ok := pair.Scan(token); ok && k != "" {
			params[strings.ToLower(k)] = v
		}
	}
	return params
}

// Pair 从字串扫描 Key Value
type Pair struct {
	delim    rune
	delimLen int
	trimFunc func(r rune) bool
}

// NewPair 新建 Pair 扫描器
func NewPair(delim rune, trimFunc func(r rune) bool) Pair {
	if trimFunc == nil {
		trimFunc = func(r rune) bool { return false }
	}
	return Pair{
		delim:    delim,
		delimLen: utf8.RuneLen(delim),
		trimFunc: trimFunc,
	}
}

// Scan 提取 K V，仅在第一个分隔符处切分
func (p Pair) Scan(s string) (key, value string, found bool) {
	i := strings.IndexRune(s, p.delim)
	if i < 0 {
		return s, "", false
	}
	return strings.TrimFunc(s[:i], p.trimFunc),
		strings.TrimFunc(s[i+p.delimLen:], p.trimFunc), true
}
