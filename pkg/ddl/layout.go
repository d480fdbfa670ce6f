package ddl

// Byte offsets and sizes of the records in a blob. The compiler writes
// records with these constants and the views below read them back.
const (
	DefSize          = 0
	DefOne           = 4
	DefNumAggregates = 8
	DefTotalSize     = 12
	DefAggregates    = 16
	DefinitionSize   = 16

	AggSize        = 0
	AggType        = 4
	AggName        = 8
	AggAuthor      = 12
	AggDescription = 16
	AggLabel       = 20
	AggNameHash    = 24
	AggregateSize  = 28

	SelNumItems    = 28
	SelDefaultItem = 32
	SelTags        = 36
	SelItems       = 40
	SelectSize     = 40

	ItemSize        = 0
	ItemName        = 4
	ItemAuthor      = 8
	ItemDescription = 12
	ItemLabel       = 16
	ItemNameHash    = 20
	ItemTags        = 24
	SelectItemSize  = 28

	BfNumFlags    = 28
	BfDefaultFlag = 32
	BfTags        = 36
	BfFlags       = 40
	BitfieldSize  = 40

	FlagSize         = 0
	FlagName         = 4
	FlagAuthor       = 8
	FlagDescription  = 12
	FlagLabel        = 16
	FlagNameHash     = 20
	FlagValue        = 24
	FlagBit          = 28
	FlagTags         = 32
	BitfieldFlagSize = 36

	FlagValueSize    = 0
	FlagValueCount   = 4
	FlagValueIndices = 8
	FlagValueHdrSize = 8

	StNumFields  = 28
	StParent     = 32
	StTags       = 36
	StDefinition = 40
	StFields     = 44
	StructSize   = 44

	FieldSize        = 0
	FieldName        = 4
	FieldAuthor      = 8
	FieldDescription = 12
	FieldLabel       = 16
	FieldValueInfo   = 20
	StructFieldSize  = 56

	VISize         = 0
	VINameHash     = 4
	VIType         = 8
	VITypeNameHash = 12
	VIArrayType    = 16
	VICount        = 20
	VIValue        = 24
	VITags         = 28
	VIKeyType      = 32
	ValueInfoSize  = 36

	BfvSize    = 0
	BfvCount   = 4
	BfvHashes  = 8
	BfvHdrSize = 8

	SvSize    = 0
	SvCount   = 4
	SvValues  = 8
	SvHdrSize = 8

	TagSize   = 0
	TagKind   = 4
	TagNext   = 8
	TagHdrLen = 12

	ListCount   = 12
	ListStrings = 16
	ListHdrSize = 16

	TextValue = 12
	TextSize  = 16

	ParallelField = 12
	ParallelSize  = 16

	RangeSoftMin = 16
	RangeSoftMax = 24
	RangeHardMin = 32
	RangeHardMax = 40
	RangeStep    = 48
	RangeSize    = 56

	GenName      = 12
	GenNameHash  = 16
	GenNumValues = 20
	GenValues    = 24
	GenericSize  = 24

	GenValType    = 0
	GenValValue   = 8
	GenValueSize  = 16
	AbstractSize  = TagHdrLen
	PointerSize   = 4
	OneMarker     = 1
	SwappedMarker = 0x01000000
)
