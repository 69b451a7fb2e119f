// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"github.com/jessevdk/go-flags"
)

// Option defines command line options.
type Option struct {
	Config  string   `short:"c" long:"config" description:"configuration file" default:"/etc/checkengine/checkengine.yaml"`
	Mode    string   `short:"m" long:"mode" description:"what to do" choice:"discover" choice:"check" choice:"run" choice:"schema" default:"check"`
	Hosts   []string `short:"H" long:"host" description:"host to process, may be repeated (default: all configured hosts)"`
	Format  string   `short:"f" long:"format" description:"output format" choice:"text" choice:"json" default:"text"`
	Debug   bool     `short:"d" long:"debug" description:"debug mode"`
	Version bool     `short:"v" long:"version" description:"display the version and exit"`
}

// Parse returns parsed command-line flags in Option struct
func Parse(name string, args []string) (*Option, error) {
	opt := &Option{}
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = name
	parser.Usage = "[OPTIONS] [host...]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	opt.Hosts = append(opt.Hosts, rest...)

	return opt, nil
}

func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}
