package registry

import (
	"fmt"

	"github.com/trustgate/trustgate/internal/fingerprint"
	"github.com/trustgate/trustgate/internal/types"
)

// GetEntity returns the entity with the given id, or false if absent.
func GetEntity(reg *types.Registry, entityID string) (*types.EntityRecord, bool) {
	entity, ok := reg.Entities[entityID]
	return entity, ok
}

// GetEntityByPath resolves an entity by its (type, path) identity.
func GetEntityByPath(reg *types.Registry, entityType types.EntityType, path string) (*types.EntityRecord, bool) {
	entityID, err := fingerprint.EntityKey(entityType, path)
	if err != nil {
		return nil, false
	}
	return GetEntity(reg, entityID)
}

// GetOrCreateEntity is an idempotent lookup-or-insert keyed by the derived
// (type, path) identity. A newly created entity starts untested, and when
// parentID resolves to an existing entity the new entity is linked as its
// child. Returns a live reference into the registry.
func GetOrCreateEntity(reg *types.Registry, entityType types.EntityType, path, name, parentID string) (*types.EntityRecord, error) {
	if !entityType.IsValid() {
		return nil, fmt.Errorf("invalid entity type: %s", entityType)
	}
	if path == "" {
		return nil, fmt.Errorf("entity path is required")
	}

	entityID, err := fingerprint.EntityKey(entityType, path)
	if err != nil {
		return nil, err
	}

	if entity, ok := reg.Entities[entityID]; ok {
		// Parent linkage may arrive later than the entity itself (a child
		// is often recorded before its parent registers the relationship).
		if parentID != "" && entity.ParentEntityID == "" {
			RegisterChild(reg, parentID, entityID)
		}
		return entity, nil
	}

	entity := &types.EntityRecord{
		EntityID:         entityID,
		EntityType:       entityType,
		EntityPath:       path,
		EntityName:       name,
		Children:         []string{},
		TestRuns:         []types.TestRun{},
		NovelInputHashes: []string{},
		Status:           types.StatusUntested,
	}
	reg.Entities[entityID] = entity

	if parentID != "" {
		RegisterChild(reg, parentID, entityID)
	}

	return entity, nil
}

// RegisterChild links childID as a direct child of parentID. It is a no-op
// when either id is absent, when the link already exists, or when the child
// already has a different parent: parent linkage, once set, is never
// silently overwritten.
func RegisterChild(reg *types.Registry, parentID, childID string) {
	parent, ok := reg.Entities[parentID]
	if !ok {
		return
	}
	child, ok := reg.Entities[childID]
	if !ok {
		return
	}
	if child.ParentEntityID != "" && child.ParentEntityID != parentID {
		return
	}
	if !parent.HasChild(childID) {
		parent.Children = append(parent.Children, childID)
	}
	child.ParentEntityID = parentID
}
