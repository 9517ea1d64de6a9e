package tools

import (
	"context"
	"fmt"
	"strings"

	"browserpilot/pkg/utils"
)

// RegisterBrowserTools wires the full browser action catalog against a session.
func RegisterBrowserTools(r *Registry, s *Session) {
	r.Register(&NavigateTool{session: s})
	r.Register(&ClickTool{session: s})
	r.Register(&TypeTextTool{session: s})
	r.Register(&ExtractTextTool{session: s})
	r.Register(&ScrollTool{session: s})
	r.Register(&WaitForLoadTool{session: s})
	r.Register(&BrowserTabsTool{session: s})
	r.Register(&CloseModalTool{session: s})
	r.Register(&DeleteElementTool{session: s})
	r.Register(&SubmitFormTool{session: s})
	r.Register(&TaskCompleteTool{})
}

// actionError renders a failed action as a result string. Failures stay in
// the conversation as text so the recovery node can classify them.
func actionError(action string, err error) string {
	return fmt.Sprintf("Error: %s failed: %v", action, err)
}

func selectorArg(args map[string]any) (string, bool) {
	sel := strings.TrimSpace(utils.GetMapFieldOr(args, "selector", ""))
	return sel, sel != ""
}

// NavigateTool loads a URL in the active tab.
type NavigateTool struct {
	session *Session
}

func (t *NavigateTool) Name() string { return ToolNavigate }

func (t *NavigateTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolNavigate,
		Description: "Navigate the active browser tab to a URL and wait for the page to load",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "Absolute URL to load"},
			},
			Required: []string{"url"},
		},
	}
}

func (t *NavigateTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	url, err := utils.GetMapField[string](args, "url")
	if err != nil {
		return "Error: navigate requires a 'url' argument", nil
	}
	if navErr := t.session.Navigate(ctx, url); navErr != nil {
		return actionError("navigate", navErr), nil
	}
	return fmt.Sprintf("Navigated to %s", url), nil
}

// ClickTool clicks an element. The "js" method dispatches the click through
// JavaScript, which sidesteps viewport hit-testing for occluded elements.
type ClickTool struct {
	session *Session
}

func (t *ClickTool) Name() string { return ToolClick }

func (t *ClickTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolClick,
		Description: "Click the element matching a CSS selector",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"selector": {Type: "string", Description: "CSS selector of the element to click"},
				"method":   {Type: "string", Description: "Click dispatch method", Enum: []string{"dom", "js"}},
			},
			Required: []string{"selector"},
		},
	}
}

func (t *ClickTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	sel, ok := selectorArg(args)
	if !ok {
		return "Error: click requires a 'selector' argument", nil
	}
	js := utils.GetMapFieldOr(args, "method", "dom") == "js"
	if err := t.session.Click(ctx, sel, js); err != nil {
		return actionError("click", err), nil
	}
	return fmt.Sprintf("Clicked %s", sel), nil
}

// TypeTextTool types text into an input element.
type TypeTextTool struct {
	session *Session
}

func (t *TypeTextTool) Name() string { return ToolTypeText }

func (t *TypeTextTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolTypeText,
		Description: "Clear the element matching a CSS selector and type text into it",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"selector": {Type: "string", Description: "CSS selector of the input element"},
				"text":     {Type: "string", Description: "Text to type"},
			},
			Required: []string{"selector", "text"},
		},
	}
}

func (t *TypeTextTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	sel, ok := selectorArg(args)
	if !ok {
		return "Error: type_text requires a 'selector' argument", nil
	}
	text := utils.GetMapFieldOr(args, "text", "")
	if err := t.session.Type(ctx, sel, text); err != nil {
		return actionError("type_text", err), nil
	}
	return fmt.Sprintf("Typed %d characters into %s", len(text), sel), nil
}

// ExtractTextTool reads visible text from the page.
type ExtractTextTool struct {
	session *Session
}

func (t *ExtractTextTool) Name() string { return ToolExtractText }

func (t *ExtractTextTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolExtractText,
		Description: "Extract visible text from the element matching a CSS selector (whole page if omitted)",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"selector": {Type: "string", Description: "CSS selector to read; defaults to the page body"},
			},
		},
	}
}

func (t *ExtractTextTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	sel := utils.GetMapFieldOr(args, "selector", "")
	text, err := t.session.ExtractText(ctx, sel)
	if err != nil {
		return actionError("extract_text", err), nil
	}
	if text == "" {
		return "No text found", nil
	}
	return text, nil
}

// ScrollTool scrolls the page by one viewport.
type ScrollTool struct {
	session *Session
}

func (t *ScrollTool) Name() string { return ToolScroll }

func (t *ScrollTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolScroll,
		Description: "Scroll the page up or down by one viewport height",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"direction": {Type: "string", Description: "Scroll direction", Enum: []string{"up", "down"}},
			},
			Required: []string{"direction"},
		},
	}
}

func (t *ScrollTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	direction := utils.GetMapFieldOr(args, "direction", "down")
	if err := t.session.Scroll(ctx, direction); err != nil {
		return actionError("scroll", err), nil
	}
	return fmt.Sprintf("Scrolled %s", direction), nil
}

// WaitForLoadTool blocks until the document is ready.
type WaitForLoadTool struct {
	session *Session
}

func (t *WaitForLoadTool) Name() string { return ToolWaitForLoad }

func (t *WaitForLoadTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolWaitForLoad,
		Description: "Wait for the current page to finish loading",
		InputSchema: InputSchema{Type: "object"},
	}
}

func (t *WaitForLoadTool) Exec(ctx context.Context, _ map[string]any) (string, error) {
	if err := t.session.WaitForLoad(ctx); err != nil {
		return actionError("wait_for_load", err), nil
	}
	return "Page loaded", nil
}

// BrowserTabsTool lists, opens, and switches browser tabs.
type BrowserTabsTool struct {
	session *Session
}

func (t *BrowserTabsTool) Name() string { return ToolBrowserTabs }

func (t *BrowserTabsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolBrowserTabs,
		Description: "Manage browser tabs: list open tabs, open a new tab, or switch to a tab by id",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"action": {Type: "string", Description: "Tab operation", Enum: []string{"list", "new", "select"}},
				"tab_id": {Type: "string", Description: "Target tab id, required for 'select'"},
			},
			Required: []string{"action"},
		},
	}
}

func (t *BrowserTabsTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	action := utils.GetMapFieldOr(args, "action", "list")
	switch action {
	case "list":
		tabs, err := t.session.Tabs(ctx)
		if err != nil {
			return actionError("browser_tabs", err), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d open tabs:\n", len(tabs))
		for i, tab := range tabs {
			marker := " "
			if tab.Active {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s [%d] id=%s %s (%s)\n", marker, i, tab.ID, tab.Title, tab.URL)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	case "new":
		tab, err := t.session.NewTab(ctx)
		if err != nil {
			return actionError("browser_tabs", err), nil
		}
		return fmt.Sprintf("Opened new tab id=%s", tab.ID), nil
	case "select":
		id := utils.GetMapFieldOr(args, "tab_id", "")
		if id == "" {
			return "Error: browser_tabs select requires a 'tab_id' argument", nil
		}
		if err := t.session.SelectTab(ctx, id); err != nil {
			return actionError("browser_tabs", err), nil
		}
		return fmt.Sprintf("Switched to tab id=%s", id), nil
	default:
		return fmt.Sprintf("Error: unknown browser_tabs action '%s'", action), nil
	}
}

// CloseModalTool dismisses popups and overlays blocking the page.
type CloseModalTool struct {
	session *Session
}

func (t *CloseModalTool) Name() string { return ToolCloseModal }

func (t *CloseModalTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolCloseModal,
		Description: "Dismiss a modal or overlay blocking the page, optionally removing elements matching a CSS selector",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"selector": {Type: "string", Description: "CSS selector of the overlay to remove"},
			},
		},
	}
}

func (t *CloseModalTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	sel := utils.GetMapFieldOr(args, "selector", "")
	if err := t.session.CloseModal(ctx, sel); err != nil {
		return actionError("close_modal", err), nil
	}
	return "Modal dismissed", nil
}

// DeleteElementTool removes elements from the DOM. Irreversible: gated behind
// human confirmation.
type DeleteElementTool struct {
	session *Session
}

func (t *DeleteElementTool) Name() string { return ToolDeleteElement }

func (t *DeleteElementTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolDeleteElement,
		Description: "Permanently remove all elements matching a CSS selector from the page",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"selector": {Type: "string", Description: "CSS selector of the elements to remove"},
			},
			Required: []string{"selector"},
		},
	}
}

func (t *DeleteElementTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	sel, ok := selectorArg(args)
	if !ok {
		return "Error: delete_element requires a 'selector' argument", nil
	}
	n, err := t.session.RemoveElement(ctx, sel)
	if err != nil {
		return actionError("delete_element", err), nil
	}
	if n == 0 {
		return fmt.Sprintf("Error: element not found for selector '%s'", sel), nil
	}
	return fmt.Sprintf("Removed %d element(s) matching %s", n, sel), nil
}

// SubmitFormTool submits a form. Irreversible: gated behind human confirmation.
type SubmitFormTool struct {
	session *Session
}

func (t *SubmitFormTool) Name() string { return ToolSubmitForm }

func (t *SubmitFormTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolSubmitForm,
		Description: "Submit the form containing the element matching a CSS selector",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"selector": {Type: "string", Description: "CSS selector of the form or a field inside it"},
			},
			Required: []string{"selector"},
		},
	}
}

func (t *SubmitFormTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	sel, ok := selectorArg(args)
	if !ok {
		return "Error: submit_form requires a 'selector' argument", nil
	}
	if err := t.session.SubmitForm(ctx, sel); err != nil {
		return actionError("submit_form", err), nil
	}
	return fmt.Sprintf("Submitted form %s", sel), nil
}

// TaskCompleteTool signals that the task goal is achieved. The orchestrator
// intercepts this call to route into goal validation; Exec only echoes the
// declared result for the conversation record.
type TaskCompleteTool struct{}

func (t *TaskCompleteTool) Name() string { return ToolTaskComplete }

func (t *TaskCompleteTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolTaskComplete,
		Description: "Declare the task finished and report the final result",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"result": {Type: "string", Description: "Final answer or summary of what was accomplished"},
			},
			Required: []string{"result"},
		},
	}
}

func (t *TaskCompleteTool) Exec(_ context.Context, args map[string]any) (string, error) {
	result := utils.GetMapFieldOr(args, "result", "")
	if result == "" {
		return "Error: task_complete requires a 'result' argument", nil
	}
	return result, nil
}
