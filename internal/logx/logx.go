// Package logx 负责安装全局 go-logging 后端；各包通过 logging.MustGetLogger 取得自己的 logger。
package logx

import (
	"io"

	"github.com/op/go-logging"
)

var format = logging.MustStringFormatter(
	`%{time:2006-01-02 15:04:05} %{level:.5s} %{module:-6s} %{message}`,
)

// Init 把日志级别与输出目标安装为全局后端。level 使用 go-logging 的级别名（DEBUG/INFO/WARNING/...，大小写不敏感）。
func Init(level string, w io.Writer) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}

	base := logging.NewLogBackend(w, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(base, format))
	leveled.SetLevel(lvl, "")

	logging.SetBackend(leveled)
	return nil
}
