package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// rawNode holds a node table before compilation.
type rawNode struct {
	id    string
	kind  types.NodeKind
	table *lua.LTable
}

// rawDef holds any other id-keyed definition table.
type rawDef struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getStrings returns the string elements of an array field.
func getStrings(tbl *lua.LTable, key string) []string {
	arr := getTable(tbl, key)
	if arr == nil {
		return nil
	}
	var out []string
	for i := 1; i <= arr.MaxN(); i++ {
		if s, ok := arr.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// toGoValue converts a scalar Lua value to a Go value.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case lua.LString:
		return string(val)
	default:
		return nil
	}
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

// compile converts all collected Lua data into content.
func compile(coll *collector) (*state.Content, error) {
	c := newContent()

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	c.Game = compileGame(coll.game)

	for _, raw := range coll.nodes {
		if _, dup := c.Nodes[raw.id]; dup {
			return nil, fmt.Errorf("duplicate node %q", raw.id)
		}
		c.Nodes[raw.id] = compileNode(raw)
	}
	for _, raw := range coll.keywords {
		c.Keywords[raw.id] = types.KeywordDef{
			ID:            raw.id,
			Title:         getString(raw.table, "title"),
			Description:   getString(raw.table, "description"),
			UnlockedNodes: getStrings(raw.table, "unlocks"),
		}
	}
	for _, raw := range coll.puzzles {
		c.Puzzles[raw.id] = types.PuzzleDef{
			ID:            raw.id,
			Description:   getString(raw.table, "description"),
			Difficulty:    getInt(raw.table, "difficulty"),
			RequiredClues: getStrings(raw.table, "clues"),
			Solution:      getString(raw.table, "solution"),
			Reward:        getString(raw.table, "reward"),
		}
	}
	for _, raw := range coll.echoes {
		c.Echoes[raw.id] = types.EchoDef{
			ID:      raw.id,
			Sender:  getString(raw.table, "sender"),
			Content: getString(raw.table, "content"),
		}
	}
	for _, raw := range coll.environments {
		c.Environments[raw.id] = types.EnvironmentDef{
			ID:              raw.id,
			Name:            getString(raw.table, "name"),
			Description:     getString(raw.table, "description"),
			BackgroundImage: getString(raw.table, "background"),
			Objects:         getStrings(raw.table, "objects"),
		}
	}
	for _, raw := range coll.anomalies {
		c.Anomalies[raw.id] = types.AnomalyDef{
			ID:          raw.id,
			Title:       getString(raw.table, "title"),
			Description: getString(raw.table, "description"),
			Impact:      getInt(raw.table, "impact"),
		}
	}
	for _, raw := range coll.locales {
		table := c.Locales[raw.id]
		if table == nil {
			table = map[string]string{}
			c.Locales[raw.id] = table
		}
		for k, v := range tableToStringMap(raw.table) {
			table[k] = v
		}
	}
	return c, nil
}

func newContent() *state.Content {
	return &state.Content{
		Nodes:        map[string]types.Node{},
		Keywords:     map[string]types.KeywordDef{},
		Puzzles:      map[string]types.PuzzleDef{},
		Echoes:       map[string]types.EchoDef{},
		Environments: map[string]types.EnvironmentDef{},
		Anomalies:    map[string]types.AnomalyDef{},
		Locales:      map[string]map[string]string{},
	}
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:         getString(tbl, "title"),
		Version:       getString(tbl, "version"),
		Author:        getString(tbl, "author"),
		DefaultLocale: getString(tbl, "locale"),
		Start:         getString(tbl, "start"),
		StartLocation: getString(tbl, "location"),
		StartTime:     getString(tbl, "time"),
		Contacts:      getStrings(tbl, "contacts"),
	}
}

func compileNode(raw rawNode) types.Node {
	tbl := raw.table
	n := types.Node{
		ID:                 raw.id,
		Content:            getString(tbl, "content"),
		ContentKey:         getString(tbl, "key"),
		Environment:        getString(tbl, "environment"),
		AvailableAnomalies: getStrings(tbl, "anomalies"),
	}
	switch raw.kind {
	case types.KindMonologue:
		n.Body = types.Monologue{Choices: compileChoices(getTable(tbl, "choices"))}
	case types.KindMessageReceived:
		n.Body = types.MessageReceived{
			Sender:  getString(tbl, "sender"),
			Choices: compileChoices(getTable(tbl, "choices")),
		}
	case types.KindMessageChoices:
		n.Body = types.MessageChoices{
			Sender:         getString(tbl, "sender"),
			MessageChoices: compileChoices(getTable(tbl, "choices")),
		}
	case types.KindPuzzle:
		n.Body = types.PuzzleNode{
			PuzzleID:      getString(tbl, "puzzle"),
			RequiredState: compileRequirements(getTable(tbl, "requires")),
			OnSolve:       compileOutcome(getTable(tbl, "onSolve")),
			OnFail:        compileOutcome(getTable(tbl, "onFail")),
		}
	case types.KindKeywordInfo:
		ret := getString(tbl, "returnTo")
		if ret == "" {
			ret = types.ReturnPrevious
		}
		n.Body = types.KeywordInfo{
			Keyword:        getString(tbl, "keyword"),
			ReturnToNodeID: ret,
		}
	}
	return n
}

func compileChoices(tbl *lua.LTable) []types.Choice {
	if tbl == nil {
		return nil
	}
	var choices []types.Choice
	for i := 1; i <= tbl.MaxN(); i++ {
		ct, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		choices = append(choices, types.Choice{
			Text:       getString(ct, "text"),
			NextNodeID: getString(ct, "next"),
			Effects:    compileEffects(getTable(ct, "effects")),
		})
	}
	return choices
}

func compileOutcome(tbl *lua.LTable) *types.Outcome {
	if tbl == nil {
		return nil
	}
	return &types.Outcome{
		NextNodeID: getString(tbl, "next"),
		Effects:    compileEffects(getTable(tbl, "effects")),
	}
}

func compileRequirements(tbl *lua.LTable) *types.Requirements {
	if tbl == nil {
		return nil
	}
	return &types.Requirements{
		Keywords:            getStrings(tbl, "keywords"),
		SolvedPuzzles:       getStrings(tbl, "solved"),
		MinAlexRelationship: getInt(tbl, "minAlexRelationship"),
		MaxSelfDoubt:        getInt(tbl, "maxSelfDoubt"),
	}
}

// compileEffects reads { key = value, ... }. Lua tables carry no order, so
// effects are applied in sorted key order.
func compileEffects(tbl *lua.LTable) types.Effects {
	if tbl == nil {
		return nil
	}
	var effs types.Effects
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			effs = append(effs, types.Effect{Key: string(ks), Value: toGoValue(v)})
		}
	})
	sort.Slice(effs, func(i, j int) bool { return effs[i].Key < effs[j].Key })
	return effs
}

// sortedLuaFiles returns .lua files with game.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
