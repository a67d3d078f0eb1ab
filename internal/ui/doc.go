// Package ui implements the operator prompts of an import as small bubbletea programs.
//
// [Terminal] runs one program per question and returns when the operator answers:
//  1. candidate picker : a [list.Model] of search results, enter selects, esc declines
//  2. confirm : y/n question, esc counts as no
//  3. edit : a [textinput.Model] prefilled with the current text, enter confirms, esc cancels
//
// Notices and errors are printed as single styled lines between prompts.
// Pressing ctrl+c in any prompt closes it and calls the function registered with [Terminal.OnInterrupt], which the CLI uses to cancel the run.
package ui
