package model

import (
	"fmt"
	"strings"
)

// Country 国家枚举（all 为哨兵值，表示不过滤）
type Country string

const (
	CountryAll     Country = "all"
	CountryUkraine Country = "ukraine"
	CountryRussia  Country = "russia"
)

// ParseCountry 解析国家参数（大小写不敏感），未知值返回错误
func ParseCountry(s string) (Country, error) {
	switch Country(strings.ToLower(strings.TrimSpace(s))) {
	case CountryAll:
		return CountryAll, nil
	case CountryUkraine:
		return CountryUkraine, nil
	case CountryRussia:
		return CountryRussia, nil
	default:
		return "", fmt.Errorf("未知的国家参数: %q，仅支持 all/ukraine/russia", s)
	}
}

// EquipmentType 装备类型枚举（与来源数据的分类一一对应）
type EquipmentType string

const (
	EquipmentAllTypes                 EquipmentType = "All Types"
	EquipmentAircraft                 EquipmentType = "Aircraft"
	EquipmentAntiAircraftGuns         EquipmentType = "Anti-Aircraft Guns"
	EquipmentAFV                      EquipmentType = "Armoured Fighting Vehicles"
	EquipmentAPC                      EquipmentType = "Armoured Personnel Carriers"
	EquipmentArtillerySupport         EquipmentType = "Artillery Support Vehicles And Equipment"
	EquipmentCommandPosts             EquipmentType = "Command Posts And Communications Stations"
	EquipmentEngineeringVehicles      EquipmentType = "Engineering Vehicles And Equipment"
	EquipmentHelicopters              EquipmentType = "Helicopters"
	EquipmentIFV                      EquipmentType = "Infantry Fighting Vehicles"
	EquipmentIMV                      EquipmentType = "Infantry Mobility Vehicles"
	EquipmentJammers                  EquipmentType = "Jammers And Deception Systems"
	EquipmentMRAP                     EquipmentType = "Mine-Resistant Ambush Protected"
	EquipmentMRL                      EquipmentType = "Multiple Rocket Launchers"
	EquipmentNavalShips               EquipmentType = "Naval Ships and Submarines"
	EquipmentRadars                   EquipmentType = "Radars"
	EquipmentReconUAV                 EquipmentType = "Reconnaissance Unmanned Aerial Vehicles"
	EquipmentSPAAG                    EquipmentType = "Self-Propelled Anti-Aircraft Guns"
	EquipmentSPATMS                   EquipmentType = "Self-Propelled Anti-Tank Missile Systems"
	EquipmentSPArtillery              EquipmentType = "Self-Propelled Artillery"
	EquipmentSAM                      EquipmentType = "Surface-To-Air Missile Systems"
	EquipmentTanks                    EquipmentType = "Tanks"
	EquipmentTowedArtillery           EquipmentType = "Towed Artillery"
	EquipmentTrucksVehiclesJeeps      EquipmentType = "Trucks, Vehicles, and Jeeps"
	EquipmentCombatUAV                EquipmentType = "Unmanned Combat Aerial Vehicles"
)

var equipmentTypeSet = map[EquipmentType]struct{}{
	EquipmentAllTypes: {}, EquipmentAircraft: {}, EquipmentAntiAircraftGuns: {},
	EquipmentAFV: {}, EquipmentAPC: {}, EquipmentArtillerySupport: {},
	EquipmentCommandPosts: {}, EquipmentEngineeringVehicles: {}, EquipmentHelicopters: {},
	EquipmentIFV: {}, EquipmentIMV: {}, EquipmentJammers: {}, EquipmentMRAP: {},
	EquipmentMRL: {}, EquipmentNavalShips: {}, EquipmentRadars: {}, EquipmentReconUAV: {},
	EquipmentSPAAG: {}, EquipmentSPATMS: {}, EquipmentSPArtillery: {}, EquipmentSAM: {},
	EquipmentTanks: {}, EquipmentTowedArtillery: {}, EquipmentTrucksVehiclesJeeps: {},
	EquipmentCombatUAV: {},
}

// ParseEquipmentType 校验并返回装备类型，未知值返回错误
func ParseEquipmentType(s string) (EquipmentType, error) {
	t := EquipmentType(s)
	if _, ok := equipmentTypeSet[t]; !ok {
		return "", fmt.Errorf("未知的装备类型: %q", s)
	}
	return t, nil
}

// Status 损失状态枚举
type Status string

const (
	StatusAbandoned Status = "abandoned"
	StatusDamaged   Status = "damaged"
	StatusDestroyed Status = "destroyed"
	StatusCaptured  Status = "captured"
)

// ParseStatus 校验并返回损失状态，未知值返回错误
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusAbandoned:
		return StatusAbandoned, nil
	case StatusDamaged:
		return StatusDamaged, nil
	case StatusDestroyed:
		return StatusDestroyed, nil
	case StatusCaptured:
		return StatusCaptured, nil
	default:
		return "", fmt.Errorf("未知的损失状态: %q，仅支持 abandoned/damaged/destroyed/captured", s)
	}
}
