package chat

import (
	"strings"
	"unicode"
)

// Command is a parsed input kind.
type Command int

const (
	// CmdNone is blank input.
	CmdNone Command = iota
	// CmdChat is anything sent to the model as a chat turn, including
	// unrecognised /words.
	CmdChat
	CmdAdd
	CmdEdit
	CmdNew
	CmdSearch
	CmdImage
	CmdModelShow
	CmdModelChange
	CmdModelEditor
	CmdHistoryShow
	CmdHistoryReset
	CmdSave
	CmdLoad
	CmdImages
	CmdSearches
	CmdResume
	CmdHelp
	CmdExit
)

var commandNames = map[Command]string{
	CmdNone:         "none",
	CmdChat:         "chat",
	CmdAdd:          "add",
	CmdEdit:         "edit",
	CmdNew:          "new",
	CmdSearch:       "search",
	CmdImage:        "image",
	CmdModelShow:    "model",
	CmdModelChange:  "model change",
	CmdModelEditor:  "model editor",
	CmdHistoryShow:  "history",
	CmdHistoryReset: "history reset",
	CmdSave:         "save",
	CmdLoad:         "load",
	CmdImages:       "images",
	CmdSearches:     "searches",
	CmdResume:       "resume",
	CmdHelp:         "help",
	CmdExit:         "exit",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// argMode says how the text after a trigger word becomes arguments.
type argMode int

const (
	argsNone   argMode = iota
	argsFields         // split on whitespace
	argsWhole          // the trimmed remainder as one argument
)

type commandDef struct {
	cmd  Command
	args argMode
}

// triggers maps the lowercase word after "/" to its command.
var triggers = map[string]commandDef{
	"add":      {CmdAdd, argsWhole},
	"edit":     {CmdEdit, argsFields},
	"new":      {CmdNew, argsWhole},
	"search":   {CmdSearch, argsNone},
	"image":    {CmdImage, argsFields},
	"model":    {CmdModelShow, argsFields},
	"history":  {CmdHistoryShow, argsFields},
	"reset":    {CmdHistoryReset, argsNone},
	"save":     {CmdSave, argsWhole},
	"load":     {CmdLoad, argsWhole},
	"images":   {CmdImages, argsNone},
	"searches": {CmdSearches, argsNone},
	"resume":   {CmdResume, argsNone},
	"help":     {CmdHelp, argsNone},
	"exit":     {CmdExit, argsNone},
	"quit":     {CmdExit, argsNone},
	"q":        {CmdExit, argsNone},
}

// Input is one parsed line.
type Input struct {
	Cmd  Command
	Args []string
	// Raw is the line without surrounding whitespace. It is the chat text
	// for CmdChat.
	Raw string
}

// Arg returns the i-th argument or "".
func (in Input) Arg(i int) string {
	if i < len(in.Args) {
		return in.Args[i]
	}
	return ""
}

// Parse resolves a line of user input to a Command in one step. Trigger
// words are case-insensitive; unknown ones fall back to chat.
func Parse(line string) Input {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return Input{Cmd: CmdNone}
	}
	if !strings.HasPrefix(raw, "/") {
		return Input{Cmd: CmdChat, Raw: raw}
	}

	word, rest := raw[1:], ""
	if i := strings.IndexFunc(word, unicode.IsSpace); i >= 0 {
		word, rest = word[:i], word[i:]
	}
	def, ok := triggers[strings.ToLower(word)]
	if !ok {
		return Input{Cmd: CmdChat, Raw: raw}
	}

	rest = strings.TrimSpace(rest)
	in := Input{Cmd: def.cmd, Raw: raw}
	switch def.args {
	case argsFields:
		in.Args = strings.Fields(rest)
	case argsWhole:
		if rest != "" {
			in.Args = []string{rest}
		}
	}

	switch def.cmd {
	case CmdModelShow:
		switch strings.ToLower(in.Arg(0)) {
		case "change", "set":
			in.Cmd, in.Args = CmdModelChange, in.Args[1:]
		case "editor":
			in.Cmd, in.Args = CmdModelEditor, in.Args[1:]
		}
	case CmdHistoryShow:
		if strings.EqualFold(in.Arg(0), "reset") {
			in.Cmd, in.Args = CmdHistoryReset, nil
		}
	}
	return in
}

// Triggers returns every slash command word, for completion.
func Triggers() []string {
	words := make([]string, 0, len(triggers)+3)
	for w := range triggers {
		words = append(words, "/"+w)
	}
	return append(words, "/model change", "/model editor", "/history reset")
}
