// SPDX-License-Identifier: GPL-3.0-or-later

package df

import (
	"slices"
	"strconv"
	"strings"

	"github.com/checkmk/checkengine/pkg/stringtable"
)

// Filesystem is one row of the df section. Sizes are in bytes.
type Filesystem struct {
	Device     string
	FSType     string
	Size       float64
	Used       float64
	Avail      float64
	Mountpoint string
}

// UsedPercent is the used share of the space usable by unprivileged users.
func (fs Filesystem) UsedPercent() float64 {
	usable := fs.Used + fs.Avail
	if usable <= 0 {
		return 0
	}
	return fs.Used / usable * 100
}

// Section maps mount points to filesystems.
type Section map[string]Filesystem

// Mountpoints returns the mount points sorted.
func (s Section) Mountpoints() []string {
	mps := make([]string, 0, len(s))
	for mp := range s {
		mps = append(mps, mp)
	}
	slices.Sort(mps)
	return mps
}

// Inodes is one row of the df_inodes section.
type Inodes struct {
	Total float64
	Used  float64
	Avail float64
}

// InodesSection maps mount points to inode usage.
type InodesSection map[string]Inodes

// parseDF parses rows "device fstype size_kb used_kb avail_kb use% mountpoint".
// Mount points may contain spaces. Rows with non-numeric sizes are dropped.
func parseDF(table stringtable.Table) (Section, bool) {
	sec := Section{}
	for _, row := range table {
		fs, ok := parseRow(row)
		if !ok {
			continue
		}
		sec[fs.mountpoint] = Filesystem{
			Device:     fs.device,
			FSType:     fs.fstype,
			Size:       fs.total * 1024,
			Used:       fs.used * 1024,
			Avail:      fs.avail * 1024,
			Mountpoint: fs.mountpoint,
		}
	}
	return sec, len(sec) > 0
}

// parseInodes parses the same layout with inode counts instead of kilobytes.
func parseInodes(table stringtable.Table) (InodesSection, bool) {
	sec := InodesSection{}
	for _, row := range table {
		fs, ok := parseRow(row)
		if !ok {
			continue
		}
		sec[fs.mountpoint] = Inodes{Total: fs.total, Used: fs.used, Avail: fs.avail}
	}
	return sec, len(sec) > 0
}

type dfRow struct {
	device, fstype     string
	total, used, avail float64
	mountpoint         string
}

func parseRow(row []string) (dfRow, bool) {
	if len(row) < 7 {
		return dfRow{}, false
	}

	var nums [3]float64
	for i, s := range row[2:5] {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return dfRow{}, false
		}
		nums[i] = float64(v)
	}

	return dfRow{
		device:     row[0],
		fstype:     row[1],
		total:      nums[0],
		used:       nums[1],
		avail:      nums[2],
		mountpoint: strings.Join(row[6:], " "),
	}, true
}
