// Package fsx 负责把聚合报告落盘（CLI --out）。
package fsx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// 测试替换点：模拟 rename 失败。
var rename = os.Rename

// TargetIsDirError 表示 --out 指向了一个已存在的目录。
type TargetIsDirError struct {
	Path string
}

func (e *TargetIsDirError) Error() string {
	return fmt.Sprintf("输出路径 %q 是目录", e.Path)
}

// WriteJSON 把 v 编码为带缩进的 JSON，并原子写入 path。
//
// 约束：
// - force=false 且 path 已存在：返回包装了 os.ErrExist 的错误，文件不变
// - path 是目录：无论 force 都返回 *TargetIsDirError
// - 写入经由同目录临时文件 + rename，读者看不到半个文件
func WriteJSON(path string, v any, force bool) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Clean(path), append(b, '\n'), force)
}

func writeAtomic(path string, data []byte, force bool) error {
	fi, err := os.Lstat(path)
	switch {
	case err == nil && fi.IsDir():
		return &TargetIsDirError{Path: path}
	case err == nil && !force:
		return fmt.Errorf("%s 已存在（使用 --force 覆盖）：%w", path, os.ErrExist)
	case err != nil && !os.IsNotExist(err):
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// 成功 rename 后 Remove 会返回 ErrNotExist，忽略即可。
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return rename(tmpName, path)
}
