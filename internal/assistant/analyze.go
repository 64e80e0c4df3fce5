package assistant

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Data types accepted by Analyze.
const (
	DataText = "text"
	DataJSON = "json"
)

// prepareRunes is how much input PrepareForLLM keeps.
const prepareRunes = 100

var (
	// ErrEmptyData is returned for blank analysis input.
	ErrEmptyData = errors.New("insira dados para análise")

	// ErrEmptyPrepare is returned for blank PrepareForLLM input.
	ErrEmptyPrepare = errors.New("insira dados para preparar para o LLM")

	// ErrInvalidDataType is returned for a data type other than text or json.
	ErrInvalidDataType = errors.New("dataType deve ser 'text' ou 'json'")
)

// InvalidJSONError reports input that is not a JSON document.
type InvalidJSONError struct {
	Err error
}

func (e *InvalidJSONError) Error() string {
	return "JSON inválido: " + e.Err.Error()
}

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// Analysis is the outcome of Analyze. Only the fields of its data type are set.
type Analysis struct {
	DataType    string   `json:"dataType"`
	Words       int      `json:"words,omitempty"`
	UniqueWords int      `json:"uniqueWords,omitempty"`
	Type        string   `json:"type,omitempty"`
	Keys        []string `json:"keys,omitempty"`
	Summary     string   `json:"summary"`
}

// Analyze dispatches to AnalyzeText or AnalyzeJSON.
func Analyze(input, dataType string) (*Analysis, error) {
	switch dataType {
	case DataText, "":
		return AnalyzeText(input)
	case DataJSON:
		return AnalyzeJSON(input)
	default:
		return nil, ErrInvalidDataType
	}
}

// AnalyzeText counts whitespace separated words. Unique words are compared
// exactly, so case matters.
func AnalyzeText(input string) (*Analysis, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyData
	}
	words := strings.Fields(input)
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return &Analysis{
		DataType:    DataText,
		Words:       len(words),
		UniqueWords: len(seen),
		Summary:     fmt.Sprintf("Análise de Texto:\nPalavras: %d\nPalavras Únicas: %d", len(words), len(seen)),
	}, nil
}

// AnalyzeJSON reports the kind of a JSON document and its top-level keys in
// document order. Arrays and strings list their indexes; null is rejected.
func AnalyzeJSON(input string) (*Analysis, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyData
	}
	var doc interface{}
	if err := json.UnmarshalFromString(input, &doc); err != nil {
		return nil, &InvalidJSONError{Err: err}
	}

	var (
		kind string
		keys []string
	)
	switch v := doc.(type) {
	case nil:
		return nil, &InvalidJSONError{Err: errors.New("null não tem chaves")}
	case map[string]interface{}:
		kind = "object"
		keys = objectKeys(input)
	case []interface{}:
		kind = "object"
		keys = indexKeys(len(v))
	case string:
		kind = "string"
		keys = indexKeys(utf8.RuneCountInString(v))
	case float64:
		kind = "number"
	case bool:
		kind = "boolean"
	}
	if keys == nil {
		keys = []string{}
	}
	return &Analysis{
		DataType: DataJSON,
		Type:     kind,
		Keys:     keys,
		Summary:  fmt.Sprintf("Análise JSON:\nTipo: %s\nChaves Principais: %s", kind, strings.Join(keys, ", ")),
	}, nil
}

// objectKeys walks the top-level object with an iterator to keep key order.
// Duplicate keys are listed once.
func objectKeys(input string) []string {
	iter := jsoniter.ParseString(json, input)
	var keys []string
	seen := map[string]bool{}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		it.Skip()
		return true
	})
	return keys
}

func indexKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}

// PrepareForLLM trims input to its first 100 characters and tags it for a
// model prompt.
func PrepareForLLM(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyPrepare
	}
	head := input
	if utf8.RuneCountInString(head) > prepareRunes {
		head = string([]rune(head)[:prepareRunes])
	}
	return "Dados preparados para LLM:\n[PROCESSADO PARA LLM]: " + head + "...", nil
}
