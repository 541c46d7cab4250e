// Copyright 2024 The flarevm Authors
// This file is part of the flarevm library.
//
// The flarevm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The flarevm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the flarevm library. If not, see <http://www.gnu.org/licenses/>.

package vm

import "github.com/flarevm/flarevm/params"

// Gas cost tiers shared by most instructions.
const (
	GasQuickStep   int16 = 2
	GasFastestStep int16 = 3
	GasFastStep    int16 = 5
	GasMidStep     int16 = 8
	GasSlowStep    int16 = 10
	GasExtStep     int16 = 20
)

// toWordSize returns the ceiled word size required for the given byte size.
func toWordSize(size uint64) uint64 {
	return (size + 31) / 32
}

// sloadCost is the constant part of an SLOAD, which changed across most
// revisions. For Berlin onwards this is the warm cost; the cold surcharge is
// applied by the executor based on the host access status.
func sloadCost(rev Revision) int64 {
	switch {
	case rev >= Berlin:
		return int64(params.WarmStorageReadCostEIP2929)
	case rev >= Istanbul:
		return int64(params.SloadGasEIP1884)
	case rev >= TangerineWhistle:
		return int64(params.SloadGasEIP150)
	default:
		return int64(params.SloadGasFrontier)
	}
}

// sstoreCostRefund maps the host-reported storage status to the gas cost and
// refund of an SSTORE for the given revision. Net gas metering (EIP-1283,
// re-enabled by EIP-2200) applies at Constantinople and from Istanbul on.
func sstoreCostRefund(rev Revision, status StorageStatus) (cost int64, refund int64) {
	netMetering := rev == Constantinople || rev >= Istanbul

	resetGas := int64(params.SstoreResetGas)
	if rev >= Berlin {
		// EIP-2929 discounts the cold sload part charged separately.
		resetGas -= int64(params.ColdSloadCostEIP2929)
	}
	clearRefund := int64(params.SstoreClearsScheduleRefundEIP2200)
	if rev >= London {
		clearRefund = int64(params.SstoreClearsScheduleRefundEIP3529)
	}

	switch status {
	case StorageAdded:
		return int64(params.SstoreSetGas), 0
	case StorageDeleted:
		return resetGas, clearRefund
	case StorageModified:
		return resetGas, 0
	case StorageUnchanged, StorageModifiedAgain:
		if netMetering {
			return sloadCost(rev), 0
		}
		return resetGas, 0
	default:
		return resetGas, 0
	}
}

// expByteCost is the per-byte cost of the EXP exponent.
func expByteCost(rev Revision) int64 {
	if rev >= SpuriousDragon {
		return int64(params.ExpByteEIP158)
	}
	return int64(params.ExpByteFrontier)
}
