package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/seatx/internal/formatter"
	"github.com/desertthunder/seatx/internal/models"
)

var _ list.Item = exportItem{}

// exportItem is either a backend export format or a local file format.
type exportItem struct {
	format models.ExportFormat
	local  string // formatter format name when the export is written locally
}

func (i exportItem) FilterValue() string { return i.format.Name }
func (i exportItem) Title() string {
	if i.format.Icon != "" {
		return i.format.Icon + " " + i.format.Name
	}
	return i.format.Name
}
func (i exportItem) Description() string { return i.format.Description }

var localExportNames = map[string]string{
	formatter.FormatCSV:      "CSV file",
	formatter.FormatMarkdown: "Markdown file",
	formatter.FormatText:     "Text file",
	formatter.FormatJSON:     "JSON file",
}

// exportItems lists backend formats first, followed by every local file format.
func exportItems(remote []models.ExportFormat) []list.Item {
	items := make([]list.Item, 0, len(remote)+len(formatter.Formats()))
	for _, f := range remote {
		items = append(items, exportItem{format: f})
	}
	for _, name := range formatter.Formats() {
		items = append(items, exportItem{
			format: models.ExportFormat{Type: name, Name: localExportNames[name], Description: "Save to the output directory"},
			local:  name,
		})
	}
	return items
}
