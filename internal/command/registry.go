package command

import "sort"

var registry = map[string]Command{}

// Register adds cmd to the registry, applying middlewares outermost-last.
func Register(cmd Command, mws ...Middleware) {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	registry[cmd.Name()] = cmd
}

func Get(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}

// All returns every registered command in a stable order.
func All() []Command {
	list := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}
