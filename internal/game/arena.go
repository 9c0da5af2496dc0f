package game

// VehicleArena хранит технику комнаты с индексом по владельцу,
// чтобы каскадное удаление при выходе игрока не требовало полного
// обхода. Не потокобезопасна: доступ сериализуется комнатой.
type VehicleArena struct {
	vehicles map[string]*Vehicle
	byOwner  map[string]map[string]struct{}
}

// NewVehicleArena создаёт пустую арену.
func NewVehicleArena() *VehicleArena {
	return &VehicleArena{
		vehicles: make(map[string]*Vehicle),
		byOwner:  make(map[string]map[string]struct{}),
	}
}

// Add регистрирует технику и обновляет индекс владельца.
func (a *VehicleArena) Add(v *Vehicle) {
	a.vehicles[v.ID] = v
	owned, ok := a.byOwner[v.OwnerID]
	if !ok {
		owned = make(map[string]struct{})
		a.byOwner[v.OwnerID] = owned
	}
	owned[v.ID] = struct{}{}
}

// Get возвращает технику по идентификатору.
func (a *VehicleArena) Get(id string) (*Vehicle, bool) {
	v, ok := a.vehicles[id]
	return v, ok
}

// Remove удаляет технику и чистит индекс владельца.
func (a *VehicleArena) Remove(id string) bool {
	v, ok := a.vehicles[id]
	if !ok {
		return false
	}
	delete(a.vehicles, id)
	if owned, ok := a.byOwner[v.OwnerID]; ok {
		delete(owned, id)
		if len(owned) == 0 {
			delete(a.byOwner, v.OwnerID)
		}
	}
	return true
}

// RemoveOwned каскадно удаляет всю технику владельца и возвращает её.
func (a *VehicleArena) RemoveOwned(ownerID string) []*Vehicle {
	owned, ok := a.byOwner[ownerID]
	if !ok {
		return nil
	}
	removed := make([]*Vehicle, 0, len(owned))
	for id := range owned {
		if v, ok := a.vehicles[id]; ok {
			removed = append(removed, v)
			delete(a.vehicles, id)
		}
	}
	delete(a.byOwner, ownerID)
	return removed
}

// OwnedBy возвращает идентификаторы техники владельца.
func (a *VehicleArena) OwnedBy(ownerID string) []string {
	owned := a.byOwner[ownerID]
	ids := make([]string, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	return ids
}

// Len возвращает общее число единиц техники.
func (a *VehicleArena) Len() int {
	return len(a.vehicles)
}

// ForEach вызывает fn для каждой единицы техники.
func (a *VehicleArena) ForEach(fn func(v *Vehicle)) {
	for _, v := range a.vehicles {
		fn(v)
	}
}
