package scripting

import (
	"context"
	"fmt"

	"github.com/wudi/pdfstudio/editor"
	"github.com/wudi/pdfstudio/tools"
)

// RegistryAPI adapts a document registry to the script-facing EditorAPI. The
// context given at construction bounds every operation the script performs;
// cancelling it aborts in-flight tool work.
type RegistryAPI struct {
	ctx context.Context
	reg *editor.Registry
}

func NewRegistryAPI(ctx context.Context, reg *editor.Registry) *RegistryAPI {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RegistryAPI{ctx: ctx, reg: reg}
}

func (a *RegistryAPI) ActiveName() string {
	if doc := a.reg.Active(); doc != nil {
		return doc.FileName()
	}
	return ""
}

func (a *RegistryAPI) PageCount() int {
	if doc := a.reg.Active(); doc != nil {
		return doc.PageCount()
	}
	return 0
}

func (a *RegistryAPI) Open(name string) error {
	doc, err := a.byName(name)
	if err != nil {
		return err
	}
	a.reg.SwitchActive(doc.ID())
	return nil
}

func (a *RegistryAPI) Rotate(pageNumbers []int, delta int) error {
	doc, err := a.active()
	if err != nil {
		return err
	}
	return tools.RotatePages(a.ctx, a.reg, doc, pageNumbers, delta)
}

func (a *RegistryAPI) Watermark(text string) error {
	doc, err := a.active()
	if err != nil {
		return err
	}
	return tools.WatermarkText(a.ctx, a.reg, doc, text, tools.WatermarkOptions{})
}

func (a *RegistryAPI) DeletePages(pageNumbers []int) error {
	doc, err := a.active()
	if err != nil {
		return err
	}
	return tools.DeletePages(a.ctx, a.reg, doc, pageNumbers)
}

func (a *RegistryAPI) Merge(name string) error {
	doc, err := a.active()
	if err != nil {
		return err
	}
	other, err := a.byName(name)
	if err != nil {
		return err
	}
	if other == doc {
		return fmt.Errorf("cannot merge %q into itself", name)
	}
	return tools.Merge(a.ctx, a.reg, doc, other)
}

func (a *RegistryAPI) Undo() (bool, error) {
	doc, err := a.active()
	if err != nil {
		return false, err
	}
	return a.reg.Undo(a.ctx, doc)
}

func (a *RegistryAPI) Redo() (bool, error) {
	doc, err := a.active()
	if err != nil {
		return false, err
	}
	return a.reg.Redo(a.ctx, doc)
}

func (a *RegistryAPI) active() (*editor.Document, error) {
	doc := a.reg.Active()
	if doc == nil {
		return nil, fmt.Errorf("%w: no active document", editor.ErrNotFound)
	}
	return doc, nil
}

func (a *RegistryAPI) byName(name string) (*editor.Document, error) {
	for _, doc := range a.reg.Documents() {
		if doc.FileName() == name {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%w: document %q", editor.ErrNotFound, name)
}
