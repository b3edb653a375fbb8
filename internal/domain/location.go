package domain

// BuildingInput carries raw building attributes.
type BuildingInput struct {
	ID      string
	Name    string
	Address *string
}

// Building is a site that contains floors.
type Building struct {
	id      string
	name    string
	address optional[string]
}

// NewBuilding validates input and returns a Building.
func NewBuilding(in BuildingInput) (Building, error) {
	if !ValidID(in.ID) {
		return Building{}, invalid("id", MsgInvalidBuildingID)
	}
	name, ok := required(in.Name)
	if !ok {
		return Building{}, invalid("name", MsgBuildingNameRequired)
	}
	return Building{id: in.ID, name: name, address: optionalText(in.Address)}, nil
}

func (b Building) ID() string   { return b.id }
func (b Building) Name() string { return b.name }

// Address returns the postal address when one was recorded.
func (b Building) Address() (string, bool) { return b.address.get() }

// Input returns the raw attributes the building was built from.
func (b Building) Input() BuildingInput {
	return BuildingInput{ID: b.id, Name: b.name, Address: b.address.ptr()}
}

// FloorInput carries raw floor attributes.
type FloorInput struct {
	ID          string
	Name        string
	BuildingID  string
	FloorNumber *int
}

// Floor is a level of a Building. Basement and ground floors use zero or
// negative numbers.
type Floor struct {
	id          string
	name        string
	buildingID  string
	floorNumber optional[int]
}

// NewFloor validates input and returns a Floor.
func NewFloor(in FloorInput) (Floor, error) {
	if !ValidID(in.ID) {
		return Floor{}, invalid("id", MsgInvalidFloorID)
	}
	name, ok := required(in.Name)
	if !ok {
		return Floor{}, invalid("name", MsgFloorNameRequired)
	}
	if !ValidID(in.BuildingID) {
		return Floor{}, invalid("building_id", MsgInvalidBuildingID)
	}
	return Floor{
		id:          in.ID,
		name:        name,
		buildingID:  in.BuildingID,
		floorNumber: optionalInt(in.FloorNumber),
	}, nil
}

func (f Floor) ID() string         { return f.id }
func (f Floor) Name() string       { return f.name }
func (f Floor) BuildingID() string { return f.buildingID }

// FloorNumber returns the floor number when one was recorded.
func (f Floor) FloorNumber() (int, bool) { return f.floorNumber.get() }

// Input returns the raw attributes the floor was built from.
func (f Floor) Input() FloorInput {
	return FloorInput{ID: f.id, Name: f.name, BuildingID: f.buildingID, FloorNumber: f.floorNumber.ptr()}
}

// RoomInput carries raw room attributes.
type RoomInput struct {
	ID       string
	Name     string
	FloorID  string
	Capacity *int
}

// Room is a space on a Floor that can hold equipment.
type Room struct {
	id       string
	name     string
	floorID  string
	capacity optional[int]
}

// NewRoom validates input and returns a Room.
func NewRoom(in RoomInput) (Room, error) {
	if !ValidID(in.ID) {
		return Room{}, invalid("id", MsgInvalidRoomID)
	}
	name, ok := required(in.Name)
	if !ok {
		return Room{}, invalid("name", MsgRoomNameRequired)
	}
	if !ValidID(in.FloorID) {
		return Room{}, invalid("floor_id", MsgInvalidFloorID)
	}
	return Room{id: in.ID, name: name, floorID: in.FloorID, capacity: optionalInt(in.Capacity)}, nil
}

func (r Room) ID() string      { return r.id }
func (r Room) Name() string    { return r.name }
func (r Room) FloorID() string { return r.floorID }

// Capacity returns the number of people the room holds when recorded.
func (r Room) Capacity() (int, bool) { return r.capacity.get() }

// Input returns the raw attributes the room was built from.
func (r Room) Input() RoomInput {
	return RoomInput{ID: r.id, Name: r.name, FloorID: r.floorID, Capacity: r.capacity.ptr()}
}
