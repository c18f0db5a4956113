package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/siteslot/siteslot/internal/tagname"
)

// DefaultRelativeRecordName is the DNS record activated when the zone does
// not name one.
const DefaultRelativeRecordName = "www"

// IDInfo describes which slots exist and whether releases are tagged. It is
// one of SingleID, SingleIDWithTags or MultipleIDs.
type IDInfo interface {
	// IDs returns the slot ids in rotation order.
	IDs() []string
	// TagScheme returns the tag naming scheme when releases are tagged.
	TagScheme() (tagname.Scheme, bool)

	isIDInfo()
}

// SingleID is one slot without release tags, e.g. a dev environment.
type SingleID struct {
	ID string
}

// SingleIDWithTags is one slot whose releases are tagged, e.g. test or qa.
type SingleIDWithTags struct {
	ID      string
	TagInfo tagname.Scheme
}

// MultipleIDs is a blue/green rotation across several slots with a DNS zone
// whose record points at the active slot.
type MultipleIDs struct {
	IDList  []string
	TagInfo tagname.Scheme
	Zone    Zone
}

// Zone locates the DNS record switched between slots.
type Zone struct {
	ResourceGroupName  string `json:"resourceGroupName" yaml:"resourceGroupName"`
	Name               string `json:"name" yaml:"name"`
	RelativeRecordName string `json:"relativeRecordName,omitempty" yaml:"relativeRecordName,omitempty"`
}

// Record returns the relative record name, defaulting to "www".
func (z Zone) Record() string {
	if z.RelativeRecordName == "" {
		return DefaultRelativeRecordName
	}
	return z.RelativeRecordName
}

func (s SingleID) IDs() []string                             { return []string{s.ID} }
func (s SingleID) TagScheme() (tagname.Scheme, bool)         { return tagname.Scheme{}, false }
func (s SingleIDWithTags) IDs() []string                     { return []string{s.ID} }
func (s SingleIDWithTags) TagScheme() (tagname.Scheme, bool) { return s.TagInfo, true }
func (m MultipleIDs) IDs() []string                          { return m.IDList }
func (m MultipleIDs) TagScheme() (tagname.Scheme, bool)      { return m.TagInfo, true }

func (SingleID) isIDInfo()         {}
func (SingleIDWithTags) isIDInfo() {}
func (MultipleIDs) isIDInfo()      {}

// IDInfoField decodes an IDInfo from either a plain string or an object.
type IDInfoField struct {
	Value IDInfo
}

// idInfoObject is the object form before the variant is chosen.
type idInfoObject struct {
	ID      *string         `json:"id" yaml:"id"`
	IDs     []string        `json:"ids" yaml:"ids"`
	TagInfo *tagname.Scheme `json:"tagInfo" yaml:"tagInfo"`
	Zone    *Zone           `json:"zone" yaml:"zone"`
}

func (f *IDInfoField) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var id string
		if err := node.Decode(&id); err != nil {
			return err
		}
		f.Value = SingleID{ID: id}
		return nil
	}
	var obj idInfoObject
	if err := decodeNodeStrict(node, &obj); err != nil {
		return err
	}
	v, err := obj.variant()
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

// decodeNodeStrict re-decodes node with unknown keys rejected at any depth.
// node.Decode does not carry the outer decoder's KnownFields setting.
func decodeNodeStrict(node *yaml.Node, out any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return decodeStrict(raw, out)
}

func (o idInfoObject) variant() (IDInfo, error) {
	switch {
	case o.IDs != nil:
		if o.TagInfo == nil {
			return nil, errors.New("tagInfo is required with ids")
		}
		if o.Zone == nil {
			return nil, errors.New("zone is required with ids")
		}
		return MultipleIDs{IDList: o.IDs, TagInfo: *o.TagInfo, Zone: *o.Zone}, nil
	case o.ID != nil:
		if o.TagInfo == nil {
			return nil, errors.New("tagInfo is required with id")
		}
		return SingleIDWithTags{ID: *o.ID, TagInfo: *o.TagInfo}, nil
	}
	return nil, fmt.Errorf("expected a slot id, {id, tagInfo} or {ids, tagInfo, zone}")
}
