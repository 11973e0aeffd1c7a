package main

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/flixfeed/internal/config"
)

type cmdArgs struct {
	Config config.CLIArgs

	Report bool
	Out    string
	Force  bool

	Positional []string
}

// flagSpec 描述某个命令接受的参数；未列出的参数一律视为用法错误。
type flagSpec struct {
	out        bool
	listen     bool
	positional int
}

var flagSpecs = map[string]flagSpec{
	"sections": {out: true},
	"popular":  {},
	"trending": {},
	"trailer":  {positional: 1},
	"serve":    {listen: true},
}

func parseArgs(cmd string, args []string) (cmdArgs, error) {
	spec := flagSpecs[cmd]
	ca := cmdArgs{}

	// value 同时支持 "--x v" 与 "--x=v"。
	value := func(i *int, a, name string) (string, error) {
		if strings.HasPrefix(a, name+"=") {
			return strings.TrimPrefix(a, name+"="), nil
		}
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s 需要一个值", name)
		}
		*i++
		return args[*i], nil
	}
	is := func(a, name string) bool {
		return a == name || strings.HasPrefix(a, name+"=")
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		var err error
		switch {
		case is(a, "--config"):
			ca.Config.ConfigPath, err = value(&i, a, "--config")
			if err == nil && strings.TrimSpace(ca.Config.ConfigPath) == "" {
				err = fmt.Errorf("--config 不能为空")
			}
		case is(a, "--lang"):
			ca.Config.Language, err = value(&i, a, "--lang")
			ca.Config.LanguageSet = true
		case is(a, "--log-level"):
			ca.Config.LogLevel, err = value(&i, a, "--log-level")
			ca.Config.LogLevelSet = true
		case spec.listen && is(a, "--listen"):
			ca.Config.Listen, err = value(&i, a, "--listen")
			ca.Config.ListenSet = true
		case spec.out && is(a, "--out"):
			ca.Out, err = value(&i, a, "--out")
			if err == nil && strings.TrimSpace(ca.Out) == "" {
				err = fmt.Errorf("--out 不能为空")
			}
		case spec.out && a == "--force":
			ca.Force = true
		case spec.out && a == "--report":
			ca.Report = true
		case strings.HasPrefix(a, "-"):
			err = fmt.Errorf("未知参数 %q", a)
		default:
			if len(ca.Positional) >= spec.positional {
				err = fmt.Errorf("多余的参数 %q", a)
			}
			ca.Positional = append(ca.Positional, a)
		}
		if err != nil {
			return cmdArgs{}, err
		}
	}

	if len(ca.Positional) < spec.positional {
		return cmdArgs{}, fmt.Errorf("缺少参数（需要 %d 个）", spec.positional)
	}
	if ca.Force && ca.Out == "" {
		return cmdArgs{}, fmt.Errorf("--force 需要与 --out 一起使用")
	}
	return ca, nil
}
