package models

import (
	"encoding/json"
)

// DefaultAddressTitle is used when the address service returns no label
const DefaultAddressTitle = "Home"

// Address is a saved delivery address owned by the address service.
type Address struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	House    string `json:"house" validate:"required"`
	Street   string `json:"street" validate:"required"`
	Landmark string `json:"landmark,omitempty"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (a *Address) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID             ID     `json:"id"`
		MongoID        ID     `json:"_id"`
		AddressID      ID     `json:"addressId"`
		Title          string `json:"title"`
		AddressType    string `json:"addressType"`
		House          string `json:"house"`
		HouseNo        string `json:"houseNo"`
		FlatNo         string `json:"flatNo"`
		Street         string `json:"street"`
		BuildingName   string `json:"buildingName"`
		Landmark       string `json:"landmark"`
		City           string `json:"city"`
		State          string `json:"state"`
		Pincode        ID     `json:"pincode"`
		PinCode        ID     `json:"pinCode"`
		Name           string `json:"name"`
		ReceiverName   string `json:"receiverName"`
		Phone          ID     `json:"phone"`
		ReceiverNumber ID     `json:"receiverNumber"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*a = Address{
		ID:       firstID(aux.ID, aux.MongoID, aux.AddressID),
		Title:    firstString(aux.Title, aux.AddressType, DefaultAddressTitle),
		House:    firstString(aux.House, aux.HouseNo, aux.FlatNo),
		Street:   firstString(aux.Street, aux.BuildingName),
		Landmark: aux.Landmark,
		City:     aux.City,
		State:    aux.State,
		Pincode:  firstID(aux.Pincode, aux.PinCode).String(),
		Name:     firstString(aux.Name, aux.ReceiverName),
		Phone:    firstID(aux.Phone, aux.ReceiverNumber).String(),
	}
	return nil
}

// FindAddress returns the address with the given id
func FindAddress(list []Address, id ID) (Address, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
