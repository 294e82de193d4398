// SPDX-License-Identifier: MIT

package config

// Clone returns an alias-free deep copy of Global.
// Only reference types (maps) are cloned; nested structs are copied by value.
func Clone(in Global) Global {
	out := in
	if in.Plugins != nil {
		out.Plugins = make(map[string]Plugin, len(in.Plugins))
		for name, p := range in.Plugins {
			out.Plugins[name] = ClonePlugin(p)
		}
	}
	return out
}

// ClonePlugin returns an alias-free deep copy of a single plugin config.
func ClonePlugin(in Plugin) Plugin {
	out := in
	if in.Options != nil {
		out.Options = make(map[string]string, len(in.Options))
		for k, v := range in.Options {
			out.Options[k] = v
		}
	}
	return out
}
