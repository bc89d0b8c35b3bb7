package main

import (
	"github.com/commute-learn/podgo/internal/app/podcast"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	podcast.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
                    __
   ____  ____  ____/ /___ _____
  / __ \/ __ \/ __  / __ ` + "`" + `/ __ \
 / /_/ / /_/ / /_/ / /_/ / /_/ /
/ .___/\____/\__,_/\__, /\____/ v: %s
/_/               /____/
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/commute-learn/podgo"))
}
