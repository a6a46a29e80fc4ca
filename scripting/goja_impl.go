package scripting

import (
	"context"

	"github.com/dop251/goja"
)

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

// RegisterEditor installs the editor API as a global 'editor' object. Go
// errors surface in scripts as thrown exceptions.
func (e *GojaEngine) RegisterEditor(api EditorAPI) error {
	obj := e.vm.NewObject()
	bindings := map[string]interface{}{
		"activeName":  api.ActiveName,
		"pageCount":   api.PageCount,
		"open":        api.Open,
		"rotate":      api.Rotate,
		"watermark":   api.Watermark,
		"deletePages": api.DeletePages,
		"merge":       api.Merge,
		"undo":        api.Undo,
		"redo":        api.Redo,
	}
	for name, fn := range bindings {
		if err := obj.Set(name, fn); err != nil {
			return err
		}
	}
	return e.vm.Set("editor", obj)
}
