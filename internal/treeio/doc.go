// Package treeio moves program trees and analysis results across process
// boundaries. The external parser writes one Document per compilation unit,
// either as msgpack (the default) or as YAML for hand-written fixtures.
package treeio
