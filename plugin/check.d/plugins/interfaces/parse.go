// SPDX-License-Identifier: GPL-3.0-or-later

package interfaces

import (
	"strconv"

	"github.com/checkmk/checkengine/pkg/stringtable"
)

// Interface is one row of the lnx_if section. Counters are cumulative.
type Interface struct {
	Name       string
	OperStatus string
	Speed      float64 // bit/s, 0 if unknown
	InOctets   float64
	InErrors   float64
	OutOctets  float64
	OutErrors  float64
}

// Section keeps the interfaces in agent order.
type Section []Interface

// Find returns the interface called name.
func (s Section) Find(name string) (Interface, bool) {
	for _, iface := range s {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// parse reads rows "name oper_status speed_bps in_octets in_errors out_octets out_errors".
// Rows with missing or non-numeric counters are dropped.
func parse(table stringtable.Table) (Section, bool) {
	var sec Section
	for _, row := range table {
		if len(row) != 7 {
			continue
		}
		var nums [5]float64
		ok := true
		for i, s := range row[2:] {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				ok = false
				break
			}
			nums[i] = float64(v)
		}
		if !ok {
			continue
		}
		sec = append(sec, Interface{
			Name:       row[0],
			OperStatus: row[1],
			Speed:      nums[0],
			InOctets:   nums[1],
			InErrors:   nums[2],
			OutOctets:  nums[3],
			OutErrors:  nums[4],
		})
	}
	return sec, len(sec) > 0
}

// mergeNodes concatenates the interfaces of all cluster nodes.
func mergeNodes(nodes []Section) Section {
	var out Section
	for _, sec := range nodes {
		out = append(out, sec...)
	}
	return out
}
