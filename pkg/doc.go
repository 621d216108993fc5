// Package pkg provides the core libraries for relmap relationship-map
// visualization.
//
// # Overview
//
// Relmap turns a database of story entries (characters, locations, items,
// events) and their declared relationships into positioned, rendered
// relationship maps. The pkg directory is organized as follows:
//
//  1. [store] - Entry and relationship persistence (SQLite, in-memory)
//  2. [graph] - Immutable graph model derived from the store, plus
//     graph/layout serialization
//  3. [layout] - Position computation (tree placement, force simulation)
//  4. [session] - Live layout state with drag interaction
//  5. [render] - PNG/SVG/DOT export from a positioned graph
//  6. [pipeline] - Orchestration (build → layout → render) with caching
//  7. [cache] - Content-addressed caching backends (file, Redis)
//
// # Architecture
//
// The typical data flow through relmap:
//
//	Entry Store (SQLite)
//	         ↓
//	graph.Build → *graph.Graph
//	         ↓
//	layout.Tree / layout.ForceSim → positions
//	         ↓
//	render.ExportPNG / render.SVG / render.ToDOT
//
// Interactive use goes through session.Session instead of running the
// layout stage to completion: the simulation is stepped while drags and
// mode switches interleave between iterations.
package pkg
