package bridge

import "fmt"

// StringArg returns args[i] as a string.
func StringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", ErrInvalidArgument, i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %d must be a string, got %T", ErrInvalidArgument, i, args[i])
	}
	return s, nil
}

// OptionalStringArg returns args[i] as a string, or def when the argument is absent or nil.
func OptionalStringArg(args []any, i int, def string) (string, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	return StringArg(args, i)
}
