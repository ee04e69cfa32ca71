package main

import (
	"flag"

	"github.com/go-arcade/sniper/internal/bootstrap"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "conf", "conf.d/sniper.toml", "conf file path, e.g. -conf ./conf.d/sniper.toml")
}

func main() {
	flag.Parse()

	app, cleanup, err := initApp(configFile)
	if err != nil {
		panic(err)
	}

	// 启动应用并等待退出信号
	bootstrap.Run(app, cleanup)
}
