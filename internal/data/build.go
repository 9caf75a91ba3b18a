package data

// In-memory constructors. They apply the same per-record validation as the
// YAML loaders.

func NewClassTable(classes ...ClassInfo) *ClassTable {
	t := &ClassTable{classes: make(map[int32]*ClassInfo, len(classes))}
	for i := range classes {
		c := classes[i]
		if c.ExpModifier == 0 {
			c.ExpModifier = 1
		}
		t.classes[c.ClassID] = &c
	}
	return t
}

func NewMobTable(mobs ...MobTemplate) *MobTable {
	t := &MobTable{templates: make(map[int32]*MobTemplate, len(mobs))}
	for i := range mobs {
		m := mobs[i]
		m.Fault = m.validate()
		t.templates[m.MobID] = &m
	}
	return t
}

func NewSkillTable(skills ...SkillInfo) *SkillTable {
	t := &SkillTable{
		skills: make(map[int32]*SkillInfo, len(skills)),
		byName: make(map[string]*SkillInfo, len(skills)),
	}
	for i := range skills {
		s := skills[i]
		s.Fault = s.validate()
		t.skills[s.SkillID] = &s
		t.byName[s.Name] = &s
	}
	return t
}

func NewDropTable(tables []LootTable, drops []LootDrop) *DropTable {
	t := &DropTable{
		tables: make(map[int32]*LootTable, len(tables)),
		drops:  make(map[int32]*LootDrop, len(drops)),
	}
	for i := range tables {
		lt := tables[i]
		for j := range lt.Entries {
			if lt.Entries[j].Multiplier <= 0 {
				lt.Entries[j].Multiplier = 1
			}
		}
		t.tables[lt.LootTableID] = &lt
	}
	for i := range drops {
		d := drops[i]
		t.drops[d.LootDropID] = &d
	}
	return t
}

func NewZoneTable(zones []Zone, camps []Camp) *ZoneTable {
	t := &ZoneTable{
		zones: make(map[int32]*Zone, len(zones)),
		camps: make(map[int32]*Camp, len(camps)),
	}
	for i := range zones {
		z := zones[i]
		if z.ExpModifier == 0 {
			z.ExpModifier = 1
		}
		t.zones[z.ZoneID] = &z
	}
	for i := range camps {
		c := camps[i]
		if c.ExpModifier == 0 {
			c.ExpModifier = 1
		}
		t.camps[c.CampID] = &c
	}
	return t
}

func NewItemTable(items ...ItemInfo) *ItemTable {
	t := &ItemTable{items: make(map[int32]*ItemInfo, len(items))}
	for i := range items {
		it := items[i]
		t.items[it.ItemID] = &it
	}
	return t
}
