package generate

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/logger"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

// ProgressEmitter receives run progress.
//
// Implementations include:
// - CLIEmitter: Pretty-printed terminal output using pterm
// - JSONEmitter: Structured JSON events for tooling
// - NopEmitter: Silent, for tests and check mode
type ProgressEmitter interface {
	// EmitStage announces the start of a stage (discover, cleanup, types, nodes, registry)
	EmitStage(stage string, message string)

	// EmitDiscovery reports every package considered, scanned or skipped
	EmitDiscovery(reports []discovery.PackageReport)

	// EmitPackage reports one package's stage result
	EmitPackage(result typegen.PackageResult)

	// EmitFile reports one written file
	EmitFile(path string)

	// EmitComplete reports the finished run
	EmitComplete(summary *Summary)

	// EmitError reports a failure; recoverable failures are reported too
	EmitError(stage string, err error)

	// EmitInfo prints an informational message
	EmitInfo(message string)
}

// ProgressEvent represents a structured JSON progress event
type ProgressEvent struct {
	Type      string                 `json:"type"`      // "stage", "package", "complete", "error", "info"
	Timestamp time.Time              `json:"timestamp"` // When this event occurred
	Data      map[string]interface{} `json:"data"`      // Event-specific data
}

// CLIEmitter outputs pretty-printed progress to terminal using pterm
type CLIEmitter struct {
	verbosity int
}

// NewCLIEmitter creates a CLI progress emitter for terminal output
func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity}
}

// EmitStage prints a stage announcement to terminal
func (e *CLIEmitter) EmitStage(stage string, message string) {
	if logger.ShouldOutput(e.verbosity, logger.OutputStages) {
		pterm.Printf("🔄 %s: %s\n", pterm.LightCyan(stage), message)
	}
}

// EmitDiscovery lists the scanned packages at -vv
func (e *CLIEmitter) EmitDiscovery(reports []discovery.PackageReport) {
	if !logger.ShouldOutput(e.verbosity, logger.OutputDiscovery) {
		return
	}
	for _, r := range reports {
		where := r.Location
		if where == "" {
			where = r.Name
		}
		if r.Skipped != "" {
			pterm.Printf("⏭️  %s (%s) %s: skipped\n", r.Package, r.Origin, where)
			continue
		}
		pterm.Printf("📦 %s (%s) %s: %d modules, %d types, %d nodes\n",
			r.Package, r.Origin, where, r.Modules, r.DataTypes, r.Nodes)
	}
}

// EmitPackage prints per-package counts
func (e *CLIEmitter) EmitPackage(result typegen.PackageResult) {
	if !logger.ShouldOutput(e.verbosity, logger.OutputPackages) {
		return
	}
	if result.Errors > 0 {
		pterm.Printf("⚠️  %s %s: %s generated, %s failed\n",
			result.Kind, result.Package,
			pterm.Green(fmt.Sprintf("%d", result.Generated)),
			pterm.Red(fmt.Sprintf("%d", result.Errors)))
		return
	}
	pterm.Printf("✅ %s %s: %s generated\n",
		result.Kind, result.Package, pterm.Green(fmt.Sprintf("%d", result.Generated)))
}

// EmitFile prints every written file at -vvv
func (e *CLIEmitter) EmitFile(path string) {
	if logger.ShouldOutput(e.verbosity, logger.OutputFiles) {
		pterm.Printf("   📝 %s\n", path)
	}
}

// EmitComplete prints the summary table
func (e *CLIEmitter) EmitComplete(summary *Summary) {
	if !logger.ShouldOutput(e.verbosity, logger.OutputSummary) {
		return
	}

	data := pterm.TableData{{"Package", "Origin", "Types", "Nodes", "Errors", "Note"}}
	for _, row := range summary.Rows() {
		data = append(data, []string{
			row.Package,
			row.Origin,
			fmt.Sprintf("%d", row.Types),
			fmt.Sprintf("%d", row.Nodes),
			fmt.Sprintf("%d", row.Errors),
			row.Note,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Printf("Failed to render summary: %v\n", err)
	}

	msg := fmt.Sprintf("Generated %d files in %s (%d errors)",
		summary.Generated(), summary.Duration.Round(time.Millisecond), summary.Errors())
	if summary.Errors() > 0 {
		pterm.Warning.Println(msg)
	} else {
		pterm.Success.Println(msg)
	}
}

// EmitError prints an error. Recoverable failures are counted in the
// summary anyway, so they only print with discovery output.
func (e *CLIEmitter) EmitError(stage string, err error) {
	if errors.Recoverable(err) {
		if logger.ShouldOutput(e.verbosity, logger.OutputDiscovery) {
			pterm.Warning.Printf("%s: %v\n", stage, err)
		}
		return
	}
	if logger.ShouldOutput(e.verbosity, logger.OutputErrors) {
		pterm.Error.Printf("Error in %s: %v\n", stage, err)
	}
}

// EmitInfo prints informational message
func (e *CLIEmitter) EmitInfo(message string) {
	if e.verbosity >= 1 {
		pterm.Info.Println(message)
	}
}

// JSONEmitter outputs structured JSON events, one per line
type JSONEmitter struct {
	encoder *json.Encoder
}

// NewJSONEmitter creates a JSON progress emitter writing to w
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{
		encoder: json.NewEncoder(w),
	}
}

func (e *JSONEmitter) emit(eventType string, data map[string]interface{}) {
	event := ProgressEvent{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	_ = e.encoder.Encode(event)
}

// EmitStage emits a stage event as JSON
func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]interface{}{
		"stage":   stage,
		"message": message,
	})
}

// EmitPackage emits a package result as JSON
func (e *JSONEmitter) EmitPackage(result typegen.PackageResult) {
	e.emit("package", map[string]interface{}{
		"kind":      result.Kind,
		"package":   result.Package,
		"generated": result.Generated,
		"errors":    result.Errors,
		"summary":   result.Summary,
	})
}

// EmitDiscovery emits one event listing every package report
func (e *JSONEmitter) EmitDiscovery(reports []discovery.PackageReport) {
	packages := make([]map[string]interface{}, 0, len(reports))
	for _, r := range reports {
		packages = append(packages, map[string]interface{}{
			"package":        r.Package,
			"name":           r.Name,
			"origin":         r.Origin,
			"location":       r.Location,
			"modules":        r.Modules,
			"modules_failed": r.ModulesFailed,
			"rejected":       r.Rejected,
			"data_types":     r.DataTypes,
			"nodes":          r.Nodes,
			"skipped":        r.Skipped,
		})
	}
	e.emit("discovery", map[string]interface{}{
		"packages": packages,
	})
}

// EmitFile emits a file event as JSON
func (e *JSONEmitter) EmitFile(path string) {
	e.emit("file", map[string]interface{}{
		"path": path,
	})
}

// EmitComplete emits a completion event as JSON
func (e *JSONEmitter) EmitComplete(summary *Summary) {
	e.emit("complete", map[string]interface{}{
		"run_id":      summary.RunID,
		"mode":        summary.Mode,
		"generated":   summary.Generated(),
		"errors":      summary.Errors(),
		"registry":    summary.Registry,
		"duration_ms": summary.Duration.Milliseconds(),
		"packages":    summary.Rows(),
	})
}

// EmitError emits an error event as JSON
func (e *JSONEmitter) EmitError(stage string, err error) {
	e.emit("error", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// EmitInfo emits an informational event as JSON
func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]interface{}{
		"message": message,
	})
}

// NopEmitter discards all progress
type NopEmitter struct{}

func (NopEmitter) EmitStage(string, string) {}
func (NopEmitter) EmitDiscovery([]discovery.PackageReport) {}
func (NopEmitter) EmitPackage(typegen.PackageResult) {}
func (NopEmitter) EmitFile(string) {}
func (NopEmitter) EmitComplete(*Summary) {}
func (NopEmitter) EmitError(string, error) {}
func (NopEmitter) EmitInfo(string) {}
