// SPDX-License-Identifier: GPL-3.0-or-later

// Package printerstatus maps printer status and error codes to states.
package printerstatus

import (
	"iter"
	"slices"
	"strings"

	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
)

// Printer is one row "name status_code error_codes". Error codes are comma separated.
type Printer struct {
	Name   string
	Status string
	Errors []string
}

// Section maps printer names to printers.
type Section map[string]Printer

var statusMap = checkapi.StateMap{
	"1": {State: checkapi.Unknown, Text: "other"},
	"2": {State: checkapi.Unknown, Text: "unknown"},
	"3": {State: checkapi.OK, Text: "idle"},
	"4": {State: checkapi.OK, Text: "printing"},
	"5": {State: checkapi.OK, Text: "warming up"},
}

var errorMap = checkapi.StateMap{
	"none":                {State: checkapi.OK, Text: "no error"},
	"lowPaper":            {State: checkapi.Warn, Text: "low paper"},
	"noPaper":             {State: checkapi.Crit, Text: "no paper"},
	"lowToner":            {State: checkapi.Warn, Text: "low toner"},
	"noToner":             {State: checkapi.Crit, Text: "no toner"},
	"doorOpen":            {State: checkapi.Crit, Text: "door open"},
	"jammed":              {State: checkapi.Crit, Text: "jammed"},
	"offline":             {State: checkapi.Crit, Text: "offline"},
	"serviceRequested":    {State: checkapi.Warn, Text: "service requested"},
	"inputTrayMissing":    {State: checkapi.Warn, Text: "input tray missing"},
	"outputTrayMissing":   {State: checkapi.Warn, Text: "output tray missing"},
	"markerSupplyMissing": {State: checkapi.Crit, Text: "marker supply missing"},
	"outputNearFull":      {State: checkapi.Warn, Text: "output near full"},
	"outputFull":          {State: checkapi.Crit, Text: "output full"},
	"inputTrayEmpty":      {State: checkapi.Warn, Text: "input tray empty"},
	"overduePreventMaint": {State: checkapi.Warn, Text: "overdue prevent maintenance"},
}

func Register(reg *checkapi.Registry) {
	reg.RegisterSection(checkapi.AgentSection{
		Name:  "printer_status",
		Parse: checkapi.Parse(parse),
	})
	reg.RegisterCheck(checkapi.CheckPlugin{
		Name:         "printer_status",
		ServiceName:  "Printer %s",
		Discovery:    checkapi.Discover(discover),
		Check:        checkapi.Check(check),
		CheckRuleset: "printer_status",
	})
}

func parse(table stringtable.Table) (Section, bool) {
	sec := Section{}
	for _, row := range table {
		if len(row) < 3 {
			continue
		}
		n := len(row)
		name := strings.Join(row[:n-2], " ")
		sec[name] = Printer{
			Name:   name,
			Status: row[n-2],
			Errors: strings.Split(row[n-1], ","),
		}
	}
	return sec, len(sec) > 0
}

func discover(_ checkapi.Params, sec Section) iter.Seq[checkapi.Service] {
	return func(yield func(checkapi.Service) bool) {
		names := make([]string, 0, len(sec))
		for name := range sec {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			if slices.Contains(sec[name].Errors, "offline") {
				continue
			}
			if !yield(checkapi.NewService(name, nil)) {
				return
			}
		}
	}
}

func check(_ checkapi.Env, item string, _ checkapi.Params, sec Section) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		p, ok := sec[item]
		if !ok {
			return
		}
		if !yield(statusMap.Result("Status", p.Status)) {
			return
		}
		for _, code := range p.Errors {
			if code == "" {
				continue
			}
			if !yield(errorMap.Result("Error", code)) {
				return
			}
		}
	}
}
