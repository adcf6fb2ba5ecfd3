package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// File names of the JSON content format.
const (
	metaFile         = "meta.json"
	nodesFile        = "nodes.json"
	keywordsFile     = "keywords.json"
	puzzlesFile      = "puzzles.json"
	echoesFile       = "echoes.json"
	environmentsFile = "environments.json"
	anomaliesFile    = "anomalies.json"
	localeDir        = "locale"
)

type jsonMeta struct {
	Title         string   `json:"title"`
	Version       string   `json:"version"`
	Author        string   `json:"author"`
	DefaultLocale string   `json:"defaultLocale"`
	Start         string   `json:"start"`
	StartLocation string   `json:"startLocation"`
	StartTime     string   `json:"startTime"`
	Contacts      []string `json:"contacts"`
}

type jsonChoice struct {
	Text       string      `json:"text"`
	NextNodeID string      `json:"nextNodeId"`
	Effects    jsonEffects `json:"effects"`
}

type jsonOutcome struct {
	NextNodeID string      `json:"nextNodeId"`
	Effects    jsonEffects `json:"effects"`
}

type jsonRequirements struct {
	Keywords            []string `json:"keywords"`
	SolvedPuzzles       []string `json:"solvedPuzzles"`
	MinAlexRelationship int      `json:"minAlexRelationship"`
	MaxSelfDoubt        int      `json:"maxSelfDoubt"`
}

type jsonNode struct {
	Type               string            `json:"type"`
	Content            string            `json:"content"`
	ContentKey         string            `json:"contentKey"`
	Environment        string            `json:"environment"`
	AvailableAnomalies []string          `json:"availableAnomalies"`
	Sender             string            `json:"sender"`
	Choices            []jsonChoice      `json:"choices"`
	MessageChoices     []jsonChoice      `json:"messageChoices"`
	PuzzleID           string            `json:"puzzleId"`
	RequiredState      *jsonRequirements `json:"requiredState"`
	OnSolve            *jsonOutcome      `json:"onSolve"`
	OnFail             *jsonOutcome      `json:"onFail"`
	Keyword            string            `json:"keyword"`
	ReturnToNodeID     string            `json:"returnToNodeId"`
}

type jsonKeyword struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	UnlockedNodes []string `json:"unlockedNodes"`
}

type jsonPuzzle struct {
	Description   string   `json:"description"`
	Difficulty    int      `json:"difficulty"`
	RequiredClues []string `json:"requiredClues"`
	Solution      string   `json:"solution"`
	Reward        string   `json:"reward"`
}

type jsonEcho struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type jsonEnvironment struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	BackgroundImage string   `json:"backgroundImage"`
	Objects         []string `json:"objects"`
}

type jsonAnomaly struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      int    `json:"impact"`
}

// jsonEffects decodes an effects object keeping the authored key order.
type jsonEffects types.Effects

func (e *jsonEffects) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("effects: expected object, got %v", tok)
	}
	var out jsonEffects
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("effect %q: %w", key, err)
		}
		out = append(out, types.Effect{Key: key, Value: normalize(v)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*e = out
	return nil
}

// normalize turns integral JSON numbers into ints.
func normalize(v any) any {
	if f, ok := v.(float64); ok && f == float64(int(f)) {
		return int(f)
	}
	return v
}

// loadJSON reads the JSON content format from dir.
func loadJSON(dir string) (*state.Content, error) {
	c := newContent()

	var meta jsonMeta
	if err := readJSON(dir, metaFile, &meta, true); err != nil {
		return nil, err
	}
	c.Game = types.GameDef(meta)

	var nodes map[string]jsonNode
	if err := readJSON(dir, nodesFile, &nodes, true); err != nil {
		return nil, err
	}
	for id, jn := range nodes {
		n, err := jn.compile(id)
		if err != nil {
			return nil, fmt.Errorf("compiling node %s: %w", id, err)
		}
		c.Nodes[id] = n
	}

	var keywords map[string]jsonKeyword
	if err := readJSON(dir, keywordsFile, &keywords, false); err != nil {
		return nil, err
	}
	for id, k := range keywords {
		c.Keywords[id] = types.KeywordDef{ID: id, Title: k.Title, Description: k.Description, UnlockedNodes: k.UnlockedNodes}
	}

	var puzzles map[string]jsonPuzzle
	if err := readJSON(dir, puzzlesFile, &puzzles, false); err != nil {
		return nil, err
	}
	for id, p := range puzzles {
		c.Puzzles[id] = types.PuzzleDef{
			ID:            id,
			Description:   p.Description,
			Difficulty:    p.Difficulty,
			RequiredClues: p.RequiredClues,
			Solution:      p.Solution,
			Reward:        p.Reward,
		}
	}

	var echoes map[string]jsonEcho
	if err := readJSON(dir, echoesFile, &echoes, false); err != nil {
		return nil, err
	}
	for id, e := range echoes {
		c.Echoes[id] = types.EchoDef{ID: id, Sender: e.Sender, Content: e.Content}
	}

	var envs map[string]jsonEnvironment
	if err := readJSON(dir, environmentsFile, &envs, false); err != nil {
		return nil, err
	}
	for id, e := range envs {
		c.Environments[id] = types.EnvironmentDef{
			ID:              id,
			Name:            e.Name,
			Description:     e.Description,
			BackgroundImage: e.BackgroundImage,
			Objects:         e.Objects,
		}
	}

	var anomalies map[string]jsonAnomaly
	if err := readJSON(dir, anomaliesFile, &anomalies, false); err != nil {
		return nil, err
	}
	for id, a := range anomalies {
		c.Anomalies[id] = types.AnomalyDef{ID: id, Title: a.Title, Description: a.Description, Impact: a.Impact}
	}

	if err := loadJSONLocales(filepath.Join(dir, localeDir), c); err != nil {
		return nil, err
	}
	return c, nil
}

func (jn jsonNode) compile(id string) (types.Node, error) {
	n := types.Node{
		ID:                 id,
		Content:            jn.Content,
		ContentKey:         jn.ContentKey,
		Environment:        jn.Environment,
		AvailableAnomalies: jn.AvailableAnomalies,
	}
	switch types.NodeKind(jn.Type) {
	case types.KindMonologue:
		n.Body = types.Monologue{Choices: choices(jn.Choices)}
	case types.KindMessageReceived:
		n.Body = types.MessageReceived{Sender: jn.Sender, Choices: choices(jn.Choices)}
	case types.KindMessageChoices:
		n.Body = types.MessageChoices{Sender: jn.Sender, MessageChoices: choices(jn.MessageChoices)}
	case types.KindPuzzle:
		p := types.PuzzleNode{
			PuzzleID: jn.PuzzleID,
			OnSolve:  jn.OnSolve.outcome(),
			OnFail:   jn.OnFail.outcome(),
		}
		if r := jn.RequiredState; r != nil {
			p.RequiredState = &types.Requirements{
				Keywords:            r.Keywords,
				SolvedPuzzles:       r.SolvedPuzzles,
				MinAlexRelationship: r.MinAlexRelationship,
				MaxSelfDoubt:        r.MaxSelfDoubt,
			}
		}
		n.Body = p
	case types.KindKeywordInfo:
		ret := jn.ReturnToNodeID
		if ret == "" {
			ret = types.ReturnPrevious
		}
		n.Body = types.KeywordInfo{Keyword: jn.Keyword, ReturnToNodeID: ret}
	default:
		return n, fmt.Errorf("unknown node type %q", jn.Type)
	}
	return n, nil
}

func choices(in []jsonChoice) []types.Choice {
	if len(in) == 0 {
		return nil
	}
	out := make([]types.Choice, len(in))
	for i, c := range in {
		out[i] = types.Choice{Text: c.Text, NextNodeID: c.NextNodeID, Effects: types.Effects(c.Effects)}
	}
	return out
}

func (o *jsonOutcome) outcome() *types.Outcome {
	if o == nil {
		return nil
	}
	return &types.Outcome{NextNodeID: o.NextNodeID, Effects: types.Effects(o.Effects)}
}

// readJSON decodes dir/name into v. A missing optional file leaves v
// untouched.
func readJSON(dir, name string, v any, required bool) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	defer f.Close()
	if err := decodeStrict(f, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// loadJSONLocales reads locale/<tag>.json tables.
func loadJSONLocales(dir string, c *state.Content) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading locale directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var table map[string]string
		if err := readJSON(dir, e.Name(), &table, true); err != nil {
			return err
		}
		c.Locales[strings.TrimSuffix(e.Name(), ".json")] = table
	}
	return nil
}
