package model

// Operation is the kind of file mutation an edit block requests.
type Operation string

const (
	OpAdd     Operation = "add"
	OpEdit    Operation = "edit"
	OpRemove  Operation = "remove"
	OpReplace Operation = "replace"
)

// ParseOperation maps the operation attribute of a block to a known kind.
// Anything unrecognized, including the empty string, falls back to OpEdit;
// models occasionally invent operation names and edit is the safe default.
func ParseOperation(s string) Operation {
	switch Operation(s) {
	case OpAdd, OpEdit, OpRemove, OpReplace:
		return Operation(s)
	default:
		return OpEdit
	}
}

// Destructive reports whether applying the operation can destroy existing
// file content and therefore needs user confirmation.
func (o Operation) Destructive() bool {
	return o == OpRemove || o == OpReplace
}

// Status is the validation outcome of a single block.
type Status string

const (
	StatusPending        Status = "pending"
	StatusValid          Status = "valid"
	StatusReadOnly       Status = "read_only_error"
	StatusSearchNotFound Status = "search_not_found_error"
	StatusOutsideProject Status = "file_outside_project_error"
)

// EditBlock is one proposed file mutation parsed from a response.
type EditBlock struct {
	// ID is the block_id attribute, unique within one parse batch.
	ID string
	// FilePath is the path attribute exactly as written in the response.
	FilePath string
	// AbsPath is the resolved absolute target, set by the validator.
	AbsPath string

	Operation      Operation
	SearchContent  string
	ReplaceContent string

	Status        Status
	StatusMessage string
}

// SetStatus records the terminal status of a block. A block transitions out
// of pending exactly once; later calls are ignored.
func (b *EditBlock) SetStatus(s Status, msg string) {
	if b.Status != StatusPending {
		return
	}
	b.Status = s
	b.StatusMessage = msg
}

// Result records what the applier did with one block.
type Result struct {
	Block   *EditBlock
	Applied bool
	// Action is "create", "modify" or "delete" when Applied is true.
	Action string
	// Reason explains why the block was not applied.
	Reason string
}

// Summary holds the outcome of a batch for display.
type Summary struct {
	Created  []string
	Modified []string
	Deleted  []string
	// Skipped lists valid blocks that were not applied (declined, or the
	// search text vanished between validation and application).
	Skipped []string
	// Failed lists blocks rejected by validation, with their status message.
	Failed  []string
	Message string

	// Compacted is the response text with applied block regions rewritten
	// into summary lines, ready to go back into conversation storage.
	Compacted string
}

// Empty reports whether the summary carries no file outcomes at all.
func (s Summary) Empty() bool {
	return len(s.Created) == 0 && len(s.Modified) == 0 &&
		len(s.Deleted) == 0 && len(s.Skipped) == 0 && len(s.Failed) == 0
}
