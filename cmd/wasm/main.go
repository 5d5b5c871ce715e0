//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"syscall/js"
	"time"

	"mdviewer/internal/autosave"
	"mdviewer/internal/document/model"
	"mdviewer/internal/document/repository"
	"mdviewer/internal/document/service"
	"mdviewer/internal/preferences"
	"mdviewer/pkg/kv"
	"mdviewer/pkg/logger"
	"mdviewer/pkg/markdown"
)

const Version = "1.0.0"

var (
	docService *service.DocumentService
	controller *autosave.Controller

	listenerMu sync.Mutex
	listener   js.Value
)

func main() {
	var backend kv.Storage
	storage, err := kv.NewLocalStorage()
	if err != nil {
		// Private browsing can deny localStorage; documents then live for the page only.
		fmt.Println("[MDViewer] localStorage unavailable, falling back to memory:", err.Error())
		backend = kv.NewMemory()
	} else {
		backend = storage
	}

	repo := repository.NewDocumentRepository(backend)
	prefs := preferences.NewStore(backend)
	docService = service.NewDocumentService(repo, prefs, markdown.NewRenderer(markdown.Options{}), nil)

	controller = autosave.New(repo, autosave.Options{OnCheckpoint: notifyCheckpoint})
	controller.SetEnabled(prefs.AutoSave(context.Background()))

	fmt.Println("[MDViewer] WASM Ready v" + Version)

	js.Global().Set("MDViewer", js.ValueOf(map[string]interface{}{
		"version":  js.FuncOf(getVersion),
		"listAll":  js.FuncOf(listAll),
		"get":      js.FuncOf(getDocument),
		"create":   js.FuncOf(createDocument),
		"update":   js.FuncOf(updateDocument),
		"delete":   js.FuncOf(deleteDocument),
		"search":   js.FuncOf(search),
		"upload":   js.FuncOf(upload),
		"preview":  js.FuncOf(preview),
		"checkbox": js.FuncOf(toggleCheckbox),
		// Autosave
		"setAutosave":   js.FuncOf(setAutosave),
		"bufferChanged": js.FuncOf(bufferChanged),
		"lastSaved":     js.FuncOf(lastSaved),
		"onCheckpoint":  js.FuncOf(onCheckpoint),
		// Preferences
		"preferences": js.FuncOf(getPreferences),
		"setTheme":    js.FuncOf(setTheme),
	}))

	select {}
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

func listAll(this js.Value, args []js.Value) interface{} {
	return jsonResult(docService.ListDocuments(context.Background(), ""))
}

// search: [query string]
func search(this js.Value, args []js.Value) interface{} {
	query := ""
	if len(args) > 0 {
		query = args[0].String()
	}
	return jsonResult(docService.ListDocuments(context.Background(), query))
}

// get: [id string]
func getDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	doc, err := docService.GetDocument(context.Background(), args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(doc)
}

// create: [title string, content string]
func createDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires 2 args: title, content")
	}
	doc, err := docService.SaveDocument(context.Background(), model.CreateDocRequest{Title: args[0].String(), Content: args[1].String()})
	if err != nil {
		return errorResult(err.Error())
	}
	controller.RecordSave(doc.UpdatedAt)
	return jsonResult(doc)
}

// update: [id string, title string, content string]
func updateDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("requires 3 args: id, title, content")
	}
	doc, err := docService.UpdateDocument(context.Background(), args[0].String(), model.UpdateDocRequest{Title: args[1].String(), Content: args[2].String()})
	if err != nil {
		return errorResult(err.Error())
	}
	controller.RecordSave(doc.UpdatedAt)
	return jsonResult(doc)
}

// delete: [id string]
func deleteDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	if err := docService.DeleteDocument(context.Background(), args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted " + args[0].String())
}

// upload: [filename string, content string]
func upload(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires 2 args: filename, content")
	}
	doc, err := docService.UploadDocument(context.Background(), args[0].String(), []byte(args[1].String()))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(doc)
}

// preview: [content string]
func preview(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: content")
	}
	resp, err := docService.Preview(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(resp)
}

// checkbox: [content string, index int]
func toggleCheckbox(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires 2 args: content, index")
	}
	return jsonResult(docService.ToggleCheckbox(model.CheckboxRequest{Content: args[0].String(), Index: args[1].Int()}))
}

// setAutosave: [enabled bool]
func setAutosave(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: enabled")
	}
	enabled := args[0].Truthy()
	if _, err := docService.UpdatePreferences(context.Background(), model.PreferencesPatch{AutoSave: &enabled}); err != nil {
		logger.Sugar.Warnf("Failed to persist autosave preference: %v", err)
	}
	controller.SetEnabled(enabled)
	return successResult(fmt.Sprintf("autosave %t", enabled))
}

// bufferChanged: [content string]
func bufferChanged(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: content")
	}
	controller.BufferChanged(args[0].String())
	return nil
}

func lastSaved(this js.Value, args []js.Value) interface{} {
	at, ok := controller.LastCheckpoint()
	if !ok {
		return ""
	}
	return at.UTC().Format(model.TimestampLayout)
}

// onCheckpoint: [callback function(docJSON string, documentsJSON string)]
func onCheckpoint(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return errorResult("requires 1 arg: callback")
	}
	listenerMu.Lock()
	listener = args[0]
	listenerMu.Unlock()
	return successResult("listening")
}

func getPreferences(this js.Value, args []js.Value) interface{} {
	return jsonResult(docService.GetPreferences(context.Background()))
}

// setTheme: [theme string]
func setTheme(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: theme")
	}
	theme := args[0].String()
	prefs, err := docService.UpdatePreferences(context.Background(), model.PreferencesPatch{Theme: &theme})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return errorResult(preferences.ErrInvalidTheme.Error())
		}
		return errorResult(err.Error())
	}
	return jsonResult(prefs)
}

// notifyCheckpoint hands the new document and the refreshed list to the page.
func notifyCheckpoint(doc model.SavedDocument, _ time.Time) {
	listenerMu.Lock()
	callback := listener
	listenerMu.Unlock()
	if callback.IsUndefined() || callback.IsNull() {
		return
	}
	callback.Invoke(jsonResult(doc), jsonResult(docService.ListDocuments(context.Background(), "")))
}

func jsonResult(v interface{}) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(jsonBytes)
}

func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}
