package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/echoes/types"
)

// registerAPI registers all Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Node constructors: Monologue "id" { ... } and friends.
	nodeKinds := map[string]types.NodeKind{
		"Monologue":   types.KindMonologue,
		"Message":     types.KindMessageReceived,
		"Reply":       types.KindMessageChoices,
		"Puzzle":      types.KindPuzzle,
		"KeywordInfo": types.KindKeywordInfo,
	}
	for name, kind := range nodeKinds {
		curried(L, name, func(id string, tbl *lua.LTable) {
			coll.nodes = append(coll.nodes, rawNode{id: id, kind: kind, table: tbl})
		})
	}

	curried(L, "Keyword", func(id string, tbl *lua.LTable) {
		coll.keywords = append(coll.keywords, rawDef{id: id, table: tbl})
	})
	curried(L, "PuzzleDef", func(id string, tbl *lua.LTable) {
		coll.puzzles = append(coll.puzzles, rawDef{id: id, table: tbl})
	})
	curried(L, "Echo", func(id string, tbl *lua.LTable) {
		coll.echoes = append(coll.echoes, rawDef{id: id, table: tbl})
	})
	curried(L, "Environment", func(id string, tbl *lua.LTable) {
		coll.environments = append(coll.environments, rawDef{id: id, table: tbl})
	})
	curried(L, "Anomaly", func(id string, tbl *lua.LTable) {
		coll.anomalies = append(coll.anomalies, rawDef{id: id, table: tbl})
	})
	curried(L, "Locale", func(tag string, tbl *lua.LTable) {
		coll.locales = append(coll.locales, rawDef{id: tag, table: tbl})
	})
}

// curried registers Name "id" { ... }: Name("id") returns a function that
// takes the definition table.
func curried(L *lua.LState, name string, define func(id string, tbl *lua.LTable)) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			define(id, L.CheckTable(1))
			return 0
		}))
		return 1
	}))
}
