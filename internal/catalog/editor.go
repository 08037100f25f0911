package catalog

// EditorType identifies the page editor a module item uses. It decides which
// settings shape applies to the module (trade setup, arcade prizes, plain).
type EditorType string

const (
	EditorNone                  EditorType = ""
	EditorConcertIArcade        EditorType = "CONCERT_I_ARCADE"
	EditorConcertIIArcade       EditorType = "CONCERT_II_ARCADE"
	EditorDeliveryArcade        EditorType = "DELIVERY_ARCADE"
	EditorDestructoidArcade     EditorType = "DESTRUCTOID_ARCADE"
	EditorDrInfernoRobotSim     EditorType = "DR_INFERNO_ROBOT_SIM"
	EditorFactoryGeneric        EditorType = "FACTORY_GENERIC"
	EditorFactoryNonGeneric     EditorType = "FACTORY_NON_GENERIC"
	EditorFriendShare           EditorType = "FRIEND_SHARE"
	EditorFriendlyFelixConcert  EditorType = "FRIENDLY_FELIX_CONCERT"
	EditorGalleryGeneric        EditorType = "GALLERY_GENERIC"
	EditorGalleryNonGeneric     EditorType = "GALLERY_NON_GENERIC"
	EditorGeneric               EditorType = "GENERIC"
	EditorGroupPerformance      EditorType = "GROUP_PERFORMANCE"
	EditorHopArcade             EditorType = "HOP_ARCADE"
	EditorLoopShoppe            EditorType = "LOOP_SHOPPE"
	EditorNetworkerPic          EditorType = "NETWORKER_PIC"
	EditorNetworkerText         EditorType = "NETWORKER_TEXT"
	EditorNetworkerTrade        EditorType = "NETWORKER_TRADE"
	EditorPlasticPelletInductor EditorType = "PLASTIC_PELLET_INDUCTOR"
	EditorRocketGame            EditorType = "ROCKET_GAME"
	EditorSoundtrack            EditorType = "SOUNDTRACK"
	EditorSticker               EditorType = "STICKER"
	EditorStickerShoppe         EditorType = "STICKER_SHOPPE"
	EditorTrade                 EditorType = "TRADE"
	EditorTrioPerformance       EditorType = "TRIO_PERFORMANCE"
)

// settingsFamily groups editor types by the settings shape they carry.
type settingsFamily uint8

const (
	familyPlain settingsFamily = iota
	familyTrade
	familyArcade
)

var editorFamilies = map[EditorType]settingsFamily{
	EditorNone:                  familyPlain,
	EditorConcertIArcade:        familyArcade,
	EditorConcertIIArcade:       familyArcade,
	EditorDeliveryArcade:        familyArcade,
	EditorDestructoidArcade:     familyArcade,
	EditorDrInfernoRobotSim:     familyArcade,
	EditorFactoryGeneric:        familyPlain,
	EditorFactoryNonGeneric:     familyPlain,
	EditorFriendShare:           familyPlain,
	EditorFriendlyFelixConcert:  familyArcade,
	EditorGalleryGeneric:        familyPlain,
	EditorGalleryNonGeneric:     familyPlain,
	EditorGeneric:               familyPlain,
	EditorGroupPerformance:      familyPlain,
	EditorHopArcade:             familyArcade,
	EditorLoopShoppe:            familyTrade,
	EditorNetworkerPic:          familyPlain,
	EditorNetworkerText:         familyPlain,
	EditorNetworkerTrade:        familyTrade,
	EditorPlasticPelletInductor: familyPlain,
	EditorRocketGame:            familyPlain,
	EditorSoundtrack:            familyPlain,
	EditorSticker:               familyPlain,
	EditorStickerShoppe:         familyTrade,
	EditorTrade:                 familyTrade,
	EditorTrioPerformance:       familyPlain,
}

// Known reports whether the editor type is recognised.
func (e EditorType) Known() bool {
	_, ok := editorFamilies[e]
	return ok
}

// IsTrade is true for editors whose setup is a single owner-chosen trade.
func (e EditorType) IsTrade() bool {
	return editorFamilies[e] == familyTrade
}

// IsArcade is true for arcade editors, which award prizes from a weighted table.
func (e EditorType) IsArcade() bool {
	return editorFamilies[e] == familyArcade
}
