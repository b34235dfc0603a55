// Package demo runs the host behind 'auto demo': a dashboard component
// mounted in a scope whose fields are driven by the tick feed of
// 'auto serve'.
package demo
