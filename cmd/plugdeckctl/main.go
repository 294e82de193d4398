// SPDX-License-Identifier: MIT

// Command plugdeckctl is a small operator tool that drives a running host
// through the same proxy layer the UI uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plugdeck/plugdeck/internal/bridge"
	"github.com/plugdeck/plugdeck/internal/config"
	pdlog "github.com/plugdeck/plugdeck/internal/log"
	"github.com/plugdeck/plugdeck/internal/proxy"
)

func main() {
	host := flag.String("host", "http://127.0.0.1:7878", "host bridge base URL")
	show := flag.Bool("show", false, "print the current global config")
	setOpt := flag.String("set", "", "set a plugin option: plugin=key=value")
	manifestOf := flag.String("manifest", "", "fetch and print a plugin's manifest")
	flag.Parse()

	pdlog.Configure(pdlog.Config{Level: "warn", Service: "plugdeckctl"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := proxy.New(ctx, bridge.New(*host))
	if err != nil {
		fmt.Fprintf(os.Stderr, "plugdeckctl: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *show:
		out, err := yaml.Marshal(p.GlobalConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "plugdeckctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))

	case *setOpt != "":
		parts := strings.SplitN(*setOpt, "=", 3)
		if len(parts) != 3 {
			fmt.Fprintln(os.Stderr, "plugdeckctl: -set expects plugin=key=value")
			os.Exit(2)
		}
		name, key, value := parts[0], parts[1], parts[2]

		cfg := p.GlobalConfig()
		plug, ok := cfg.Plugins[name]
		if !ok {
			plug = config.Plugin{}
		}
		if plug.Options == nil {
			plug.Options = map[string]string{}
		}
		plug.Options[key] = value
		cfg.Plugins[name] = plug
		p.SetGlobalConfig(cfg)

		// The UI relies on fire-and-forget commits; a one-shot tool wants
		// the save acknowledged before it exits, so call the bridge directly.
		if err := bridge.New(*host).SetGlobalConfig(ctx, p.GlobalConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "plugdeckctl: save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("set %s.%s = %s\n", name, key, value)

	case *manifestOf != "":
		m, err := p.ManifestOf(ctx, *manifestOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plugdeckctl: %v\n", err)
			os.Exit(1)
		}
		out, err := yaml.Marshal(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plugdeckctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))

	default:
		entries := p.Plugins()
		if len(entries) == 0 {
			fmt.Println("no plugins configured")
			return
		}
		for _, e := range entries {
			state := "disabled"
			if e.Config.Enabled {
				state = "enabled"
			}
			fmt.Printf("%-20s %-9s prefix=%q\n", e.Name, state, e.Config.Prefix)
		}
	}
}
