package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// cliEnv 汇总命令运行所需的外部环境，便于测试时替换为内存 writer。
type cliEnv struct {
	ctx    context.Context
	cwd    string
	stdout io.Writer
	stderr io.Writer

	stdoutTTY bool
	stderrTTY bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		os.Exit(1)
	}

	code := runCLI(cliEnv{
		ctx:       ctx,
		cwd:       cwd,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		stdoutTTY: isTTY(os.Stdout),
		stderrTTY: isTTY(os.Stderr),
	}, os.Args[1:])
	stop()
	os.Exit(code)
}

func runCLI(env cliEnv, args []string) int {
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(env.stdout)
		return 0
	}

	cmd, rest := args[0], args[1:]
	for _, a := range rest {
		if isHelp(a) {
			printCommandUsage(env.stdout, cmd)
			return 0
		}
	}

	switch cmd {
	case "sections":
		return sectionsCmd(env, rest)
	case "popular", "trending":
		return listCmd(env, cmd, rest)
	case "trailer":
		return trailerCmd(env, rest)
	case "serve":
		return serveCmd(env, rest)
	default:
		fmt.Fprintf(env.stderr, "未知命令：%q\n\n", cmd)
		printUsage(env.stderr)
		return 2
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  flixfeed sections [--config file] [--lang xx-YY] [--report] [--out file [--force]]
  flixfeed popular  [--config file] [--lang xx-YY]
  flixfeed trending [--config file] [--lang xx-YY]
  flixfeed trailer <movie-id> [--config file] [--lang xx-YY]
  flixfeed serve    [--config file] [--lang xx-YY] [--listen addr]

命令：
  sections  聚合全部分区（含 trailer）
  popular   热门影片列表
  trending  本周趋势影片列表
  trailer   查询单部影片的 trailer
  serve     启动 HTTP JSON 服务

使用 "flixfeed <命令> --help" 查看详细说明。
`)
}

func printCommandUsage(w io.Writer, cmd string) {
	switch cmd {
	case "sections":
		fmt.Fprint(w, `用法：
  flixfeed sections [--config file] [--lang xx-YY] [--report] [--out file [--force]]

参数：
  --config     配置文件（必须存在）；未指定则尝试 ./flixfeed.{yaml,json,toml}
  --lang       请求语言，例如 en-US（覆盖配置与环境变量）
  --log-level  日志级别：DEBUG|INFO|NOTICE|WARNING|ERROR|CRITICAL
  --report     stdout 输出完整报告（含诊断字段），而不是纯分区列表
  --out        把完整报告原子写入文件；文件已存在时需要 --force
  --force      允许覆盖 --out 指定的文件
  -h, --help   显示帮助
`)
	case "serve":
		fmt.Fprint(w, `用法：
  flixfeed serve [--config file] [--lang xx-YY] [--listen addr]

参数：
  --listen     监听地址（默认 :8080）
  --config / --lang / --log-level 同 sections
`)
	default:
		printUsage(w)
	}
}
