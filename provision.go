package fhsweep

import (
	"fmt"
)

// DefaultSiteLimit is the fronthaul capacity (bps) of one HL5 site
const DefaultSiteLimit = 70e9

// DefaultCellsPerSite is the number of cells sharing a site's fronthaul capacity
const DefaultCellsPerSite = 3

// cell feature keys of the HL4-HL5 scenario, under every node, site and cell
const (
	cellFeaturePath = "Hl5Agreggration.*.Sites.*.CellFeatures.*."
	KeyURatenum     = "URatenum"
	KeyUPacketSize  = "UPacketSize"
	KeyCRatenum     = "CRatenum"
	KeyCPacketSize  = "CPacketSize"
)

// A Provision is the per-cell load written into the scenario: rates in bps, packet sizes in bytes
type Provision struct {
	Traffic    Traffic
	Scaled     bool
	URate      float64
	CRate      float64
	UPacketLen float64
	CPacketLen float64
}

// ProvisionCells sizes the cells of one site. When the cells' combined U-plane and C-plane load
// exceeds siteLimit the C-plane rate becomes (siteLimit/cells)/(U/C + 1) and the U-plane rate keeps
// the U/C ratio, so the site fills exactly.  Otherwise the unscaled rates are used.
func ProvisionCells(rc RadioConfig, siteLimit float64, cells int) (*Provision, error) {
	if siteLimit <= 0 {
		return nil, fmt.Errorf("site limit %v must be positive", siteLimit)
	}
	if cells <= 0 {
		return nil, fmt.Errorf("cells per site %d must be positive", cells)
	}

	tr, err := FronthaulTraffic(rc)
	if err != nil {
		return nil, err
	}

	prov := &Provision{
		Traffic:    tr,
		URate:      tr.UserGbps * 1e9,
		CRate:      tr.ControlGbps * 1e9,
		UPacketLen: tr.UserPacketBytes,
		CPacketLen: tr.ControlPacketBytes,
	}

	if (tr.UserGbps+tr.ControlGbps)*float64(cells)*1e9 > siteLimit {
		ratio := tr.UserGbps / tr.ControlGbps
		prov.CRate = (siteLimit / float64(cells)) / (ratio + 1)
		prov.URate = prov.CRate * ratio
		prov.Scaled = true
	}
	return prov, nil
}

// Parameters writes the provisioned load into every cell of every site of every HL5 node
func (prov *Provision) Parameters() []SweepParameter {
	return []SweepParameter{
		FloatParam(cellFeaturePath+KeyURatenum, prov.URate),
		FloatParam(cellFeaturePath+KeyUPacketSize, prov.UPacketLen),
		FloatParam(cellFeaturePath+KeyCRatenum, prov.CRate),
		FloatParam(cellFeaturePath+KeyCPacketSize, prov.CPacketLen),
	}
}
