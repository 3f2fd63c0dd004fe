/*
* btcminer
* Copyright (C) 2026 The btcminer Authors
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package common

import (
	"fmt"
	"strings"
)

// State of the scan loop. The value doubles as the "processing" status
// indicator of the board.
type ScanState uint32

const (
	// no job or the last job is finished
	Idle ScanState = iota
	// a job is loaded and the nonce space is being searched
	Processing
)

func (s ScanState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	}
	return fmt.Sprintf("ScanState(%d)", uint32(s))
}

// Protocol variant of the work item exchanged with the host.
//
// Exactly one variant is active per build, see [BuildVariant].
type Variant uint8

const (
	// 48 byte job: midstate | merkle tail | timestamp | bits | nonce
	VariantMidstate Variant = iota
	// 80 byte job: full block header
	VariantHeader
)

// Size in bytes of a job of this variant on the wire.
func (v Variant) JobSize() int {
	if v == VariantHeader {
		return 80
	}
	return 48
}

func (v Variant) String() string {
	switch v {
	case VariantMidstate:
		return "midstate"
	case VariantHeader:
		return "header"
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// ParseVariant is the inverse of [Variant.String]
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "midstate", "ms", "a":
		return VariantMidstate, nil
	case "header", "full", "b":
		return VariantHeader, nil
	}
	return 0, fmt.Errorf("unknown protocol variant %q", s)
}

// What the scan loop does after it reported a satisfying nonce.
type SuccessPolicy uint8

const (
	// stop scanning, the host is expected to send the next job
	ReturnToIdle SuccessPolicy = iota
	// keep scanning the remaining nonce space and report further hits
	KeepScanning
)

func (p SuccessPolicy) String() string {
	if p == KeepScanning {
		return "keep-scanning"
	}
	return "return-to-idle"
}

func ParseSuccessPolicy(s string) (SuccessPolicy, error) {
	switch strings.ToLower(s) {
	case "idle", "return-to-idle", "":
		return ReturnToIdle, nil
	case "continue", "keep-scanning":
		return KeepScanning, nil
	}
	return 0, fmt.Errorf("unknown success policy %q", s)
}
