// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sync"
)

var buffers = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 1024*2))
	},
}

// WriteJSON 将 obj 编码为缩进格式的 JSON 写入 w
func WriteJSON(w io.Writer, obj interface{}) error {
	formatted := buffers.Get().(*bytes.Buffer)
	formatted.Reset()
	defer buffers.Put(formatted)

	body, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err := json.Indent(formatted, body, "", "\t"); err != nil {
		return err
	}
	_, err = w.Write(formatted.Bytes())
	return err
}

// EncodeJSONFile 编码 JSON 文件
func EncodeJSONFile(path string, obj interface{}) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteJSON(f, obj); err != nil {
		return err
	}
	return f.Sync()
}
